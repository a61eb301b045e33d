package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, AdminSubject(ctx))
	assert.False(t, HasTime(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)

	fixed := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)
	ctx = WithClientMetadata(ctx, "3.18.12.63", "Stripe/1.0")
	ctx = WithAdminSubject(ctx, "ops@example.com")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.True(t, HasTime(ctx))
	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, "3.18.12.63", ClientIP(ctx))
	assert.Equal(t, "Stripe/1.0", UserAgent(ctx))
	assert.Equal(t, "ops@example.com", AdminSubject(ctx))
}
