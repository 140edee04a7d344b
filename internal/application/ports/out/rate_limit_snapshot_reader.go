package out

import "depixsync/internal/application/dto"

type RateLimitSnapshotReader interface {
	Snapshot() []dto.RateWindowSnapshot
}
