package domain

// CallKind discriminates the CallEventDetail union.
type CallKind uint8

const (
	CallKindUnknown CallKind = iota
	CallKindMobileOriginated
	CallKindMobileTerminated
	CallKindGprs
	CallKindSupplService
)

func (k CallKind) String() string {
	switch k {
	case CallKindMobileOriginated:
		return "mobileOriginatedCall"
	case CallKindMobileTerminated:
		return "mobileTerminatedCall"
	case CallKindGprs:
		return "gprsCall"
	case CallKindSupplService:
		return "supplServiceEvent"
	default:
		return "unknown"
	}
}

func (c *CallEventDetail) Kind() CallKind {
	switch {
	case c.MobileOriginatedCall != nil:
		return CallKindMobileOriginated
	case c.MobileTerminatedCall != nil:
		return CallKindMobileTerminated
	case c.GprsCall != nil:
		return CallKindGprs
	case c.SupplServiceEvent != nil:
		return CallKindSupplService
	default:
		return CallKindUnknown
	}
}

// ChargeInformations collects every charge information group of the event,
// whatever the call kind.
func (c *CallEventDetail) ChargeInformations() []ChargeInformation {
	var out []ChargeInformation
	switch {
	case c.MobileOriginatedCall != nil:
		for _, bsu := range c.MobileOriginatedCall.BasicServiceUsedList {
			out = append(out, bsu.ChargeInformationList...)
		}
	case c.MobileTerminatedCall != nil:
		for _, bsu := range c.MobileTerminatedCall.BasicServiceUsedList {
			out = append(out, bsu.ChargeInformationList...)
		}
	case c.GprsCall != nil:
		if c.GprsCall.GprsServiceUsed != nil {
			out = append(out, c.GprsCall.GprsServiceUsed.ChargeInformationList...)
		}
	}
	return out
}

// TotalCharge sums the "00"-flagged charge-detail entries of the event.
// This is the billable value used for audit reconciliation and for the
// affected-charge field of a severe return.
func (c *CallEventDetail) TotalCharge() int64 {
	var total int64
	for _, ci := range c.ChargeInformations() {
		total += chargeInfoTotal(&ci)
	}
	return total
}

func chargeInfoTotal(ci *ChargeInformation) int64 {
	var total int64
	for _, cd := range ci.ChargeDetailList {
		if cd.ChargeType != nil && *cd.ChargeType == BillableChargeType && cd.Charge != nil {
			total += *cd.Charge
		}
	}
	return total
}

// StartTimeStamp returns the call event start timestamp, or nil when the
// carrying structure is absent.
func (c *CallEventDetail) StartTimeStamp() *CodedTimestamp {
	switch {
	case c.MobileOriginatedCall != nil && c.MobileOriginatedCall.BasicCallInformation != nil:
		return c.MobileOriginatedCall.BasicCallInformation.CallEventStartTimeStamp
	case c.MobileTerminatedCall != nil && c.MobileTerminatedCall.BasicCallInformation != nil:
		return c.MobileTerminatedCall.BasicCallInformation.CallEventStartTimeStamp
	case c.GprsCall != nil && c.GprsCall.GprsBasicCallInformation != nil:
		return c.GprsCall.GprsBasicCallInformation.CallEventStartTimeStamp
	case c.SupplServiceEvent != nil:
		return c.SupplServiceEvent.CallEventStartTimeStamp
	default:
		return nil
	}
}

// Clone deep-copies the event so a return batch never aliases the input
// tree; the caller may discard the interchange record before the RAP file
// is transported.
func (c *CallEventDetail) Clone() CallEventDetail {
	var out CallEventDetail
	if c.MobileOriginatedCall != nil {
		mo := *c.MobileOriginatedCall
		mo.BasicCallInformation = cloneMoBasicCallInfo(mo.BasicCallInformation)
		mo.LocationInformation = cloneLocationInfo(mo.LocationInformation)
		mo.EquipmentIdentifier = clonePtr(mo.EquipmentIdentifier)
		mo.BasicServiceUsedList = cloneBasicServiceUsedList(mo.BasicServiceUsedList)
		out.MobileOriginatedCall = &mo
	}
	if c.MobileTerminatedCall != nil {
		mt := *c.MobileTerminatedCall
		mt.BasicCallInformation = cloneMtBasicCallInfo(mt.BasicCallInformation)
		mt.LocationInformation = cloneLocationInfo(mt.LocationInformation)
		mt.EquipmentIdentifier = clonePtr(mt.EquipmentIdentifier)
		mt.BasicServiceUsedList = cloneBasicServiceUsedList(mt.BasicServiceUsedList)
		out.MobileTerminatedCall = &mt
	}
	if c.GprsCall != nil {
		g := *c.GprsCall
		g.GprsBasicCallInformation = cloneGprsBasicCallInfo(g.GprsBasicCallInformation)
		g.GprsLocationInformation = cloneGprsLocationInfo(g.GprsLocationInformation)
		g.EquipmentIdentifier = clonePtr(g.EquipmentIdentifier)
		g.GprsServiceUsed = cloneGprsServiceUsed(g.GprsServiceUsed)
		out.GprsCall = &g
	}
	if c.SupplServiceEvent != nil {
		s := *c.SupplServiceEvent
		s.ChargeableSubscriber = clonePtr(s.ChargeableSubscriber)
		s.CallEventStartTimeStamp = clonePtr(s.CallEventStartTimeStamp)
		out.SupplServiceEvent = &s
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMoBasicCallInfo(b *MoBasicCallInformation) *MoBasicCallInformation {
	if b == nil {
		return nil
	}
	out := *b
	out.ChargeableSubscriber = clonePtr(out.ChargeableSubscriber)
	out.Destination = clonePtr(out.Destination)
	out.DestinationNetwork = clonePtr(out.DestinationNetwork)
	out.CallEventStartTimeStamp = clonePtr(out.CallEventStartTimeStamp)
	out.TotalCallEventDuration = clonePtr(out.TotalCallEventDuration)
	out.CauseForTerm = clonePtr(out.CauseForTerm)
	out.RapFileSequenceNumber = clonePtr(out.RapFileSequenceNumber)
	return &out
}

func cloneMtBasicCallInfo(b *MtBasicCallInformation) *MtBasicCallInformation {
	if b == nil {
		return nil
	}
	out := *b
	out.ChargeableSubscriber = clonePtr(out.ChargeableSubscriber)
	out.CallOriginator = clonePtr(out.CallOriginator)
	out.OriginatingNetwork = clonePtr(out.OriginatingNetwork)
	out.CallEventStartTimeStamp = clonePtr(out.CallEventStartTimeStamp)
	out.TotalCallEventDuration = clonePtr(out.TotalCallEventDuration)
	out.CauseForTerm = clonePtr(out.CauseForTerm)
	out.RapFileSequenceNumber = clonePtr(out.RapFileSequenceNumber)
	return &out
}

func cloneLocationInfo(l *LocationInformation) *LocationInformation {
	if l == nil {
		return nil
	}
	out := *l
	out.NetworkLocation = clonePtr(out.NetworkLocation)
	out.ServingNetwork = clonePtr(out.ServingNetwork)
	return &out
}

func cloneBasicServiceUsedList(in []BasicServiceUsed) []BasicServiceUsed {
	if in == nil {
		return nil
	}
	out := make([]BasicServiceUsed, len(in))
	for i, bsu := range in {
		bsu.BasicService = clonePtr(bsu.BasicService)
		bsu.ChargingTimeStamp = clonePtr(bsu.ChargingTimeStamp)
		bsu.ChargeInformationList = cloneChargeInformationList(bsu.ChargeInformationList)
		out[i] = bsu
	}
	return out
}

func cloneChargeInformationList(in []ChargeInformation) []ChargeInformation {
	if in == nil {
		return nil
	}
	out := make([]ChargeInformation, len(in))
	for i, ci := range in {
		ci.ChargedItem = clonePtr(ci.ChargedItem)
		ci.ExchangeRateCode = clonePtr(ci.ExchangeRateCode)
		ci.CallTypeGroup = clonePtr(ci.CallTypeGroup)
		ci.DiscountInformation = clonePtr(ci.DiscountInformation)
		if ci.ChargeDetailList != nil {
			cds := make([]ChargeDetail, len(ci.ChargeDetailList))
			for j, cd := range ci.ChargeDetailList {
				cd.ChargeType = clonePtr(cd.ChargeType)
				cd.Charge = clonePtr(cd.Charge)
				cd.ChargeableUnits = clonePtr(cd.ChargeableUnits)
				cd.ChargedUnits = clonePtr(cd.ChargedUnits)
				cd.ChargeDetailTimeStamp = clonePtr(cd.ChargeDetailTimeStamp)
				cds[j] = cd
			}
			ci.ChargeDetailList = cds
		}
		if ci.TaxInformation != nil {
			txs := make([]TaxInformation, len(ci.TaxInformation))
			for j, tx := range ci.TaxInformation {
				tx.TaxCode = clonePtr(tx.TaxCode)
				tx.TaxValue = clonePtr(tx.TaxValue)
				txs[j] = tx
			}
			ci.TaxInformation = txs
		}
		out[i] = ci
	}
	return out
}

func cloneGprsBasicCallInfo(b *GprsBasicCallInformation) *GprsBasicCallInformation {
	if b == nil {
		return nil
	}
	out := *b
	if out.GprsChargeableSubscriber != nil {
		cs := *out.GprsChargeableSubscriber
		cs.ChargeableSubscriber = clonePtr(cs.ChargeableSubscriber)
		cs.NetworkAccessIdentifier = clonePtr(cs.NetworkAccessIdentifier)
		cs.PdpAddress = clonePtr(cs.PdpAddress)
		out.GprsChargeableSubscriber = &cs
	}
	if out.GprsDestination != nil {
		d := *out.GprsDestination
		d.AccessPointNameNI = clonePtr(d.AccessPointNameNI)
		d.AccessPointNameOI = clonePtr(d.AccessPointNameOI)
		out.GprsDestination = &d
	}
	out.CallEventStartTimeStamp = clonePtr(out.CallEventStartTimeStamp)
	out.TotalCallEventDuration = clonePtr(out.TotalCallEventDuration)
	out.CauseForTerm = clonePtr(out.CauseForTerm)
	out.PartialTypeIndicator = clonePtr(out.PartialTypeIndicator)
	out.PDPContextStartTimestamp = clonePtr(out.PDPContextStartTimestamp)
	out.ChargingID = clonePtr(out.ChargingID)
	out.RapFileSequenceNumber = clonePtr(out.RapFileSequenceNumber)
	return &out
}

func cloneGprsLocationInfo(l *GprsLocationInformation) *GprsLocationInformation {
	if l == nil {
		return nil
	}
	out := *l
	if out.RecEntityCodes != nil {
		codes := make([]int, len(out.RecEntityCodes))
		copy(codes, out.RecEntityCodes)
		out.RecEntityCodes = codes
	}
	out.LocationArea = clonePtr(out.LocationArea)
	out.CellID = clonePtr(out.CellID)
	out.ServingNetwork = clonePtr(out.ServingNetwork)
	return &out
}

func cloneGprsServiceUsed(s *GprsServiceUsed) *GprsServiceUsed {
	if s == nil {
		return nil
	}
	out := *s
	out.DataVolumeIncoming = clonePtr(out.DataVolumeIncoming)
	out.DataVolumeOutgoing = clonePtr(out.DataVolumeOutgoing)
	out.ChargeInformationList = cloneChargeInformationList(out.ChargeInformationList)
	return &out
}
