package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mdql/common"
	"mdql/config"
)

func TestEnvFromContext(t *testing.T) {
	t.Run("valid context", func(t *testing.T) {
		env := EnvFromContext(ContextWithEnv(context.Background()))
		if env == nil {
			t.Fatal("Expected non-nil environment")
		}
		if env.start.IsZero() {
			t.Error("Environment start time not set")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when env not in context")
			}
		}()
		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_SelectTier(t *testing.T) {
	cfg := &config.Config{Layout: *config.DefaultLayout()}
	narrow := common.WidthTierNarrow

	tests := []struct {
		name  string
		width float64
		force *common.WidthTier
		want  common.WidthTier
	}{
		{"wide", 800, nil, common.WidthTierNormal},
		{"small", 250, nil, common.WidthTierNarrow},
		{"forced", 800, &narrow, common.WidthTierNarrow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Cfg: cfg, Width: tt.width, Tier: tt.force}
			if got := env.SelectTier(); got != tt.want {
				t.Errorf("SelectTier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}
		for i := range 3 {
			env.RedirectStdLog()
			if env.restoreStdLog == nil {
				t.Errorf("Iteration %d: restoreStdLog not set", i)
			}
			env.RestoreStdLog()
		}
	})

	t.Run("without logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("Expected restoreStdLog to remain nil")
		}
		env.RestoreStdLog()
	})
}
