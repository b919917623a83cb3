package analytics_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/analytics"
)

func TestAnalytics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Analytics Suite")
}

type mockReader struct {
	records    []analytics.Record
	shouldFail bool
	lastFilter analytics.Filter
	calls      int
}

func (m *mockReader) Expenses(ctx context.Context, filter analytics.Filter) ([]analytics.Record, error) {
	m.calls++
	m.lastFilter = filter
	if m.shouldFail {
		return nil, errors.New("connection reset")
	}
	return m.records, nil
}

func record(amount, status, category, currency, createdAt string) analytics.Record {
	t, err := time.Parse("2006-01-02", createdAt)
	Expect(err).NotTo(HaveOccurred())
	return analytics.Record{
		Amount:    decimal.RequireFromString(amount),
		Status:    status,
		Category:  category,
		Currency:  currency,
		CreatedAt: t,
	}
}

var _ = Describe("AnalyticsService", func() {
	var (
		reader  *mockReader
		service *analytics.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		reader = &mockReader{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = analytics.NewService(reader, logger)
		ctx = context.Background()
	})

	Describe("ComputeAnalytics", func() {
		It("should pass the parsed window and user to the reader", func() {
			_, err := service.ComputeAnalytics(ctx, analytics.Params{
				StartDate: "2024-01-01",
				EndDate:   "2024-01-31",
				UserID:    "3",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(*reader.lastFilter.UserID).To(Equal(int64(3)))
			Expect(*reader.lastFilter.Range.Start).To(Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(reader.lastFilter.Range.End.Day()).To(Equal(31))
		})

		It("should return zeros and empty groups without rows", func() {
			report, err := service.ComputeAnalytics(ctx, analytics.Params{})

			Expect(err).NotTo(HaveOccurred())
			Expect(report.TotalSpent).To(BeZero())
			Expect(report.AverageAmount).To(BeZero())
			Expect(report.ByCategory).To(BeEmpty())
			Expect(report.ByCategory).NotTo(BeNil())
			Expect(report.MonthlyTrends).NotTo(BeNil())
		})

		DescribeTable("should reject malformed filters before reading",
			func(params analytics.Params, code internal.ErrorCode) {
				_, err := service.ComputeAnalytics(ctx, params)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(code))
				Expect(appErr.StatusCode).To(Equal(400))
				Expect(reader.calls).To(BeZero())
			},
			Entry("bad start", analytics.Params{StartDate: "not-a-date"}, internal.ErrCodeInvalidStartDate),
			Entry("bad end", analytics.Params{EndDate: "31/01/2024"}, internal.ErrCodeInvalidEndDate),
			Entry("inverted range", analytics.Params{StartDate: "2024-02-01", EndDate: "2024-01-01"}, internal.ErrCodeInvalidDateRange),
			Entry("bad user", analytics.Params{UserID: "abc"}, internal.ErrCodeInvalidUserID),
		)

		It("should hide reader failures behind an internal error", func() {
			reader.shouldFail = true

			_, err := service.ComputeAnalytics(ctx, analytics.Params{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})
})

var _ = Describe("Aggregate", func() {
	It("should summarise approved spend and every status", func() {
		report := analytics.Aggregate([]analytics.Record{
			record("100", "approved", "Travel", "USD", "2024-01-15"),
			record("50", "pending", "Meals", "USD", "2024-02-10"),
		})

		Expect(report.TotalSpent).To(Equal(100.0))
		Expect(report.AverageAmount).To(Equal(100.0))
		Expect(report.ByStatus).To(Equal([]analytics.StatusTotal{
			{Status: "approved", Amount: 100, Count: 1},
			{Status: "pending", Amount: 50, Count: 1},
		}))
		Expect(report.ByCategory).To(Equal([]analytics.CategoryTotal{
			{Category: "Travel", Amount: 100, Count: 1},
		}))
		Expect(report.ByCurrency).To(Equal([]analytics.CurrencyTotal{
			{Currency: "USD", Amount: 100},
		}))
		Expect(report.MonthlyTrends).To(Equal([]analytics.MonthlyTotal{
			{Month: "2024-01", Amount: 100},
		}))
	})

	It("should sort months and keep first-seen group order", func() {
		report := analytics.Aggregate([]analytics.Record{
			record("10", "approved", "Software", "EUR", "2024-03-02"),
			record("20", "approved", "Travel", "USD", "2023-12-30"),
			record("30", "approved", "Software", "USD", "2024-01-05"),
			record("5", "rejected", "Travel", "USD", "2024-01-06"),
		})

		Expect(report.MonthlyTrends).To(Equal([]analytics.MonthlyTotal{
			{Month: "2023-12", Amount: 20},
			{Month: "2024-01", Amount: 30},
			{Month: "2024-03", Amount: 10},
		}))
		Expect(report.ByCategory[0].Category).To(Equal("Software"))
		Expect(report.ByCategory[0].Count).To(Equal(2))
		Expect(report.ByCurrency[0].Currency).To(Equal("EUR"))
		Expect(report.ByStatus).To(HaveLen(2))
		Expect(report.TotalSpent).To(Equal(60.0))
	})

	It("should round sums and averages to cents", func() {
		report := analytics.Aggregate([]analytics.Record{
			record("10.005", "approved", "Meals", "USD", "2024-01-01"),
			record("0.10", "approved", "Meals", "USD", "2024-01-02"),
			record("0.20", "approved", "Meals", "USD", "2024-01-03"),
		})

		// exact sum 10.305, average 3.435
		Expect(report.TotalSpent).To(Equal(10.31))
		Expect(report.AverageAmount).To(Equal(3.44))
		Expect(report.ByCategory[0].Amount).To(Equal(10.31))
	})

	It("should avoid binary floating point drift", func() {
		report := analytics.Aggregate([]analytics.Record{
			record("0.1", "approved", "Meals", "USD", "2024-01-01"),
			record("0.2", "approved", "Meals", "USD", "2024-01-02"),
		})

		Expect(report.TotalSpent).To(Equal(0.3))
	})
})
