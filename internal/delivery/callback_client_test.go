package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/mileage-skill/internal/api/dto"
	"github.com/spec-kit/mileage-skill/internal/observability"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

func TestDeliverPostsJSON(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        dto.SkillResponse
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	client := NewCallbackClient(time.Second, zap.NewNop(), metrics)

	reply := dto.NewTextResponse("홍길동님, 본인인증이 완료되었습니다 ✅", dto.NewMessageQuickReply("포인트 조회", "#포인트_조회"))
	require.NoError(t, client.Deliver(context.Background(), srv.URL+"/callback", reply))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Contains(t, gotContentType, "application/json")
	assert.Equal(t, reply, gotBody)
	assert.Equal(t, int64(1), metrics.Snapshot().Deliveries["ok"])
}

func TestDeliverFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("expired callback"))
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	client := NewCallbackClient(time.Second, zap.NewNop(), metrics)

	err := client.Deliver(context.Background(), srv.URL, dto.NewTextResponse("x"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
	assert.ErrorContains(t, err, "400")
	assert.Equal(t, int64(1), metrics.Snapshot().Deliveries["failed"])
}

func TestDeliverTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	client := NewCallbackClient(100*time.Millisecond, zap.NewNop(), nil)

	start := time.Now()
	err := client.Deliver(context.Background(), srv.URL, dto.NewTextResponse("x"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDeliverUnreachable(t *testing.T) {
	client := NewCallbackClient(200*time.Millisecond, zap.NewNop(), nil)
	err := client.Deliver(context.Background(), "http://127.0.0.1:1/callback", dto.NewTextResponse("x"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
}

func TestDeliverRespectsExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	client := NewCallbackClient(time.Second, zap.NewNop(), nil)
	err := client.Deliver(ctx, "http://127.0.0.1:1/callback", dto.NewTextResponse("x"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
}
