package analytics_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/analytics"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

var _ = Describe("AnalyticsHandler", func() {
	var (
		handler  *analytics.Handler
		reader   *mockReader
		recorder *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reader = &mockReader{}
		handler = analytics.NewHandler(transport.NewBaseHandler(logger), analytics.NewService(reader, logger))
		recorder = httptest.NewRecorder()
	})

	It("should render the report", func() {
		reader.records = []analytics.Record{
			record("100", "approved", "Travel", "USD", "2024-01-15"),
			record("50", "pending", "Meals", "USD", "2024-02-10"),
		}

		handler.GetAnalytics(recorder, httptest.NewRequest(http.MethodGet, "/analytics", nil))

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Body.String()).To(MatchJSON(`{
			"totalSpent": 100,
			"byCategory": [{"category": "Travel", "amount": 100, "count": 1}],
			"byStatus": [
				{"status": "approved", "amount": 100, "count": 1},
				{"status": "pending", "amount": 50, "count": 1}
			],
			"byCurrency": [{"currency": "USD", "amount": 100}],
			"monthlyTrends": [{"month": "2024-01", "amount": 100}],
			"averageAmount": 100
		}`))
	})

	It("should render empty arrays for an empty window", func() {
		handler.GetAnalytics(recorder, httptest.NewRequest(http.MethodGet, "/analytics?userId=9", nil))

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Body.String()).To(MatchJSON(`{
			"totalSpent": 0, "byCategory": [], "byStatus": [], "byCurrency": [],
			"monthlyTrends": [], "averageAmount": 0
		}`))
	})

	It("should return 400 for an inverted range", func() {
		handler.GetAnalytics(recorder, httptest.NewRequest(http.MethodGet, "/analytics?startDate=2024-02-01&endDate=2024-01-01", nil))

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		var body internal.ErrorResponse
		Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Code).To(Equal("INVALID_DATE_RANGE"))
	})
})
