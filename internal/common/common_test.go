package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, "me", cfg.Gmail.UserID)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.False(t, cfg.Extract.SkipBadRows)
	assert.False(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.ValidateDatabase())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/orders")
	t.Setenv("SKIP_BAD_ROWS", "true")
	t.Setenv("QUEUE_PROCESS_TIMEOUT", "90s")
	t.Setenv("EXPIRY_DATE", "1700000000000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Extract.SkipBadRows)
	assert.Equal(t, 90*time.Second, cfg.Queue.ProcessTimeout)
	assert.Equal(t, int64(1700000000000), cfg.Gmail.ExpiryMillis)
	assert.NoError(t, cfg.ValidateDatabase())
	assert.ErrorIs(t, cfg.ValidateGmail(), ErrInvalidInput)
}

func TestConfigValidateDatabase(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "postgres"}}
	assert.ErrorIs(t, cfg.ValidateDatabase(), ErrInvalidInput)

	cfg.Database.Driver = "mysql"
	assert.ErrorIs(t, cfg.ValidateDatabase(), ErrInvalidInput)
}

type tagged struct {
	ID   string `validate:"required,len=4,hexadecimal"`
	Name string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(tagged{ID: "beef", Name: "x"}))

	err := ValidateStruct(tagged{ID: "zz", Name: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "tagged.ID")
	assert.Contains(t, err.Error(), "tagged.Name")
}

func TestValidatorRules(t *testing.T) {
	v := NewValidator().
		Field("html", "   ", Required).
		Field("html", "abcdef", MaxBytes(3)).
		Field("timestamp_millis", int64(-1), NonNegative)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.ErrorIs(t, v.Error(), ErrValidation)

	ok := NewValidator().Field("html", "<p>", Required, MaxBytes(10))
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ValidateAndReturnError(ok))
}

func TestTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	assert.Len(t, TraceIDFromContext(ctx), 36)
	ctx = WithTraceID(ctx, "fixed")
	assert.Equal(t, "fixed", TraceIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}

func TestGRPCCode(t *testing.T) {
	assert.Equal(t, codes.OK, GRPCCode(nil))
	assert.Equal(t, codes.NotFound, GRPCCode(OrderNotFound("abc")))
	assert.Equal(t, codes.InvalidArgument, GRPCCode(fmt.Errorf("%w: bad", ErrValidation)))
	assert.Equal(t, codes.InvalidArgument, GRPCCode(ErrInvalidInput))
	assert.Equal(t, codes.Internal, GRPCCode(fmt.Errorf("%w: down", ErrDatabase)))
	assert.Equal(t, codes.Internal, GRPCCode(errors.New("boom")))

	var appErr *AppError
	require.ErrorAs(t, OrderNotFound("abc"), &appErr)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.Equal(t, "NOT_FOUND: order abc: resource not found", appErr.Error())
}
