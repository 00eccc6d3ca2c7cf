package client_test

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"

	"github.com/frahmantamala/expense-tracker/internal/client"
	pkgLogger "github.com/frahmantamala/expense-tracker/pkg/logger"
)

var _ = Describe("Client", func() {
	var be *backend

	BeforeEach(func() {
		be = startBackend()
	})

	AfterEach(func() {
		be.stop()
	})

	It("logs a trace context it could not inject and still sends the request", func() {
		// no injectors registered: every Inject fails
		opentracing.SetGlobalTracer(&mocktracer.MockTracer{})
		DeferCleanup(func() { opentracing.SetGlobalTracer(opentracing.NoopTracer{}) })

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		api := client.New(be.server.URL+"/api/v1", 5*time.Second, logger)
		idp := client.NewIdentity(api, be.creds, pkgLogger.Discard())

		Expect(idp.SignUp(context.Background(), "traced@example.com", "secret-pass")).To(Succeed())
		Expect(logs.String()).To(ContainSubstring("trace context not injected"))
		Expect(logs.String()).To(ContainSubstring("path=/auth/signup"))
	})
})
