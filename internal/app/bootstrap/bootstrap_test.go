package bootstrap

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
	"github.com/callkaidsroofing/lead-intake/internal/events"
	httpmiddleware "github.com/callkaidsroofing/lead-intake/internal/http/middleware"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/internal/notify"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, nil, true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
}

func TestBuildLeadLimiter(t *testing.T) {
	assert.Nil(t, BuildLeadLimiter(&appconfig.Config{}, nil, nil))

	cfg := &appconfig.Config{RateLimitPerMinute: 5, RateLimitBurst: 5}
	local, inProcess := BuildLeadLimiter(cfg, nil, nil).(*httpmiddleware.RateLimiter)
	require.True(t, inProcess)
	t.Cleanup(func() { _ = local.Close() })

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, nil, false)
	t.Cleanup(func() { _ = client.Close() })
	_, shared := BuildLeadLimiter(cfg, client, nil).(*httpmiddleware.RedisLimiter)
	assert.True(t, shared)
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.Default()

	_, ok := BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailStub}, nil, logger).(*notify.StubEmailSender)
	assert.True(t, ok)

	_, ok = BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailResend, ResendAPIKey: "re_test"}, nil, logger).(*notify.ResendSender)
	assert.True(t, ok)

	_, ok = BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailSendGrid, SendGridAPIKey: "SG.test"}, nil, logger).(*notify.SendGridSender)
	assert.True(t, ok)

	_, ok = BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailSES}, &aws.Config{Region: "ap-southeast-2"}, logger).(*notify.SESSender)
	assert.True(t, ok)

	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailResend}, nil, logger), "missing key disables email")
	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: appconfig.EmailSES}, nil, logger), "ses needs aws config")
}

func TestBuildDispatcherHandlers(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:     appconfig.EmailStub,
		LeadQueueURL:      "http://localhost:4566/000000000000/leads",
		LeadArchiveBucket: "lead-archive",
	}

	d := BuildDispatcher(cfg, DispatchDeps{}, nil)
	assert.Equal(t, []string{HandlerOwnerEmail, HandlerCustomerReply}, d.Handlers(), "aws handlers need aws config")

	d = BuildDispatcher(cfg, DispatchDeps{AWS: &aws.Config{Region: "ap-southeast-2"}}, nil)
	assert.Equal(t, []string{HandlerOwnerEmail, HandlerCustomerReply, HandlerQueue, HandlerArchive}, d.Handlers())
}

func TestBuildLeadStoreMemoryDispatchesDirectly(t *testing.T) {
	d := events.NewDispatcher(nil)
	got := make(chan events.LeadSubmittedV1, 1)
	d.Register("probe", events.LeadHandlerFunc(func(_ context.Context, evt events.LeadSubmittedV1) error {
		got <- evt
		return nil
	}))

	store, err := BuildLeadStore(&appconfig.Config{LeadStore: appconfig.StoreMemory}, nil, d, nil)
	require.NoError(t, err)
	assert.Nil(t, store.Deliverer)
	assert.Nil(t, store.DB)

	lead := &leads.Lead{Reference: "LEAD-1-AAAAA", Name: "Jane", Phone: "0412345678", Suburb: "Berwick", Service: leads.ServiceRoofPainting}
	require.NoError(t, store.Sink.Submit(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)

	select {
	case evt := <-got:
		assert.Equal(t, "LEAD-1-AAAAA", evt.Lead.Reference)
	case <-time.After(time.Second):
		t.Fatal("expected lead event")
	}
}

func TestBuildLeadStoreErrors(t *testing.T) {
	_, err := BuildLeadStore(&appconfig.Config{LeadStore: appconfig.StorePostgres}, nil, nil, nil)
	assert.Error(t, err)

	_, err = BuildLeadStore(&appconfig.Config{LeadStore: appconfig.StoreSupabase}, nil, nil, nil)
	assert.Error(t, err)

	_, err = BuildLeadStore(&appconfig.Config{LeadStore: "dynamo"}, nil, nil, nil)
	assert.Error(t, err)
}
