package valueobjects

// EndpointClass groups settlement provider endpoints that share one quota.
type EndpointClass string

const (
	EndpointClassLivenessCheck      EndpointClass = "liveness_check"
	EndpointClassDepositCreation    EndpointClass = "deposit_creation"
	EndpointClassDepositStatusQuery EndpointClass = "deposit_status_query"
)

func EndpointClasses() []EndpointClass {
	return []EndpointClass{
		EndpointClassLivenessCheck,
		EndpointClassDepositCreation,
		EndpointClassDepositStatusQuery,
	}
}

func (c EndpointClass) String() string {
	return string(c)
}
