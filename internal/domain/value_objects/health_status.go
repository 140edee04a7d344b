package valueobjects

type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
)

func NewHealthyStatus() HealthStatus {
	return HealthStatusOK
}

// HealthStatusFromLiveness degrades the service status when the settlement
// provider does not answer its liveness check.
func HealthStatusFromLiveness(settlementAlive bool) HealthStatus {
	if settlementAlive {
		return HealthStatusOK
	}
	return HealthStatusDegraded
}

func (h HealthStatus) String() string {
	return string(h)
}
