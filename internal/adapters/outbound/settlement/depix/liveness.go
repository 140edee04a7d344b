package depix

import (
	"context"
	"time"

	"depixsync/internal/application/dto"
	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLivenessTTL = 60 * time.Second
	livenessCacheKey   = "settlement_liveness"
)

type pinger interface {
	Ping(ctx context.Context) (dto.SettlementPingOutput, *apperrors.AppError)
}

// CachedLivenessProbe answers health checks from the last ping result. The
// liveness class allows one ping per minute, so both outcomes are cached and
// concurrent misses share a single upstream call.
type CachedLivenessProbe struct {
	gateway pinger
	cache   *cache.Cache
	group   singleflight.Group
	logger  *zap.Logger
}

var _ portsout.SettlementLivenessProbe = (*CachedLivenessProbe)(nil)

func NewCachedLivenessProbe(gateway pinger, ttl time.Duration, logger *zap.Logger) *CachedLivenessProbe {
	if ttl <= 0 {
		ttl = defaultLivenessTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLivenessProbe{
		gateway: gateway,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

func (p *CachedLivenessProbe) CheckLiveness(ctx context.Context) dto.SettlementLivenessOutput {
	if cached, ok := p.cache.Get(livenessCacheKey); ok {
		return cached.(dto.SettlementLivenessOutput)
	}

	result, _, _ := p.group.Do(livenessCacheKey, func() (any, error) {
		if cached, ok := p.cache.Get(livenessCacheKey); ok {
			return cached, nil
		}
		output := p.ping(ctx)
		p.cache.SetDefault(livenessCacheKey, output)
		return output, nil
	})
	return result.(dto.SettlementLivenessOutput)
}

func (p *CachedLivenessProbe) ping(ctx context.Context) dto.SettlementLivenessOutput {
	if p.gateway == nil {
		return dto.SettlementLivenessOutput{Alive: false, ErrorCode: "settlement_gateway_missing"}
	}

	output, appErr := p.gateway.Ping(ctx)
	if appErr != nil {
		p.logger.Warn("settlement ping failed",
			zap.String("error_type", string(appErr.Type)),
			zap.String("error_code", appErr.Code),
		)
		return dto.SettlementLivenessOutput{Alive: false, ErrorCode: appErr.Code}
	}
	return dto.SettlementLivenessOutput{Alive: output.OK}
}
