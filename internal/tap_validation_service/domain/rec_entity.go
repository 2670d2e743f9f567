package domain

// RecEntityType enumerates the recording entity types of TD.57 v32.
type RecEntityType int

const (
	RecEntityMSC   RecEntityType = 1
	RecEntitySMSC  RecEntityType = 2
	RecEntityGGSN  RecEntityType = 3
	RecEntitySGSN  RecEntityType = 4
	RecEntityGMLC  RecEntityType = 5
	RecEntityWiFi  RecEntityType = 6
	RecEntityPGW   RecEntityType = 7
	RecEntitySGW   RecEntityType = 8
	RecEntityPCSCF RecEntityType = 9
	RecEntityTRF   RecEntityType = 10
	RecEntityATCF  RecEntityType = 11
)

func (t RecEntityType) String() string {
	switch t {
	case RecEntityMSC:
		return "MSC"
	case RecEntitySMSC:
		return "SMSC"
	case RecEntityGGSN:
		return "GGSN/P-GW"
	case RecEntitySGSN:
		return "SGSN"
	case RecEntityGMLC:
		return "GMLC"
	case RecEntityWiFi:
		return "Wi-Fi"
	case RecEntityPGW:
		return "P-GW"
	case RecEntitySGW:
		return "S-GW"
	case RecEntityPCSCF:
		return "P-CSCF"
	case RecEntityTRF:
		return "TRF"
	case RecEntityATCF:
		return "ATCF"
	default:
		return "unknown"
	}
}

// Valid reports whether the type is one TD.57 defines.
func (t RecEntityType) Valid() bool {
	return t >= RecEntityMSC && t <= RecEntityATCF
}
