package approvalrule_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/approvalrule/postgres"
	approvalRuleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/database"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

func TestApprovalRule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Approval Rule Suite")
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int {
	return &i
}

func expectCode(err error, code internal.ErrorCode) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue())
	ExpectWithOffset(1, appErr.Code).To(Equal(code))
}

type recordingRepository struct {
	approvalrule.RepositoryAPI
	calls *[]string
}

func (r *recordingRepository) Lock(ctx context.Context) error {
	*r.calls = append(*r.calls, "lock")
	return r.RepositoryAPI.Lock(ctx)
}

func (r *recordingRepository) List(ctx context.Context) ([]*approvalRuleDatamodel.ApprovalRule, error) {
	*r.calls = append(*r.calls, "list")
	return r.RepositoryAPI.List(ctx)
}

func (r *recordingRepository) Create(ctx context.Context, rule *approvalRuleDatamodel.ApprovalRule) error {
	*r.calls = append(*r.calls, "create")
	return r.RepositoryAPI.Create(ctx, rule)
}

func (r *recordingRepository) Transaction(ctx context.Context, fn func(repo approvalrule.RepositoryAPI) error) error {
	return r.RepositoryAPI.Transaction(ctx, func(tx approvalrule.RepositoryAPI) error {
		return fn(&recordingRepository{RepositoryAPI: tx, calls: r.calls})
	})
}

var _ = Describe("Rule", func() {
	It("should treat ranges as half-open", func() {
		rule := &approvalrule.Rule{MinAmount: decimal.NewFromInt(100), MaxAmount: dec("1000")}

		Expect(rule.Contains(decimal.NewFromInt(100))).To(BeTrue())
		Expect(rule.Contains(decimal.RequireFromString("999.99"))).To(BeTrue())
		Expect(rule.Contains(decimal.NewFromInt(1000))).To(BeFalse())
		Expect(rule.Contains(decimal.RequireFromString("99.99"))).To(BeFalse())
	})

	It("should detect overlaps against unbounded rules", func() {
		open := &approvalrule.Rule{MinAmount: decimal.NewFromInt(1000)}

		Expect(open.Overlaps(&approvalrule.Rule{MinAmount: decimal.NewFromInt(500), MaxAmount: dec("1000")})).To(BeFalse())
		Expect(open.Overlaps(&approvalrule.Rule{MinAmount: decimal.NewFromInt(500), MaxAmount: dec("1000.01")})).To(BeTrue())
		Expect(open.Overlaps(&approvalrule.Rule{MinAmount: decimal.NewFromInt(5000)})).To(BeTrue())
	})

	It("should find the gaps in the default table", func() {
		gaps := approvalrule.FindGaps(approvalrule.DefaultRules())

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].From.String()).To(Equal("99.99"))
		Expect(gaps[0].To.String()).To(Equal("100"))
	})

	It("should report an open-ended gap when the last rule is bounded", func() {
		gaps := approvalrule.FindGaps([]*approvalrule.Rule{{MinAmount: decimal.Zero, MaxAmount: dec("50")}})

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].From.String()).To(Equal("50"))
		Expect(gaps[0].To).To(BeNil())
	})
})

var _ = Describe("ApprovalRuleService", func() {
	var (
		db      *database.DB
		service *approvalrule.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = approvalrule.NewService(postgres.NewApprovalRuleRepository(db.Gorm), logger)
		ctx = context.Background()

		inserted, err := service.SeedDefaults(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(Equal(3))
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("SeedDefaults", func() {
		It("should not seed twice", func() {
			inserted, err := service.SeedDefaults(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeZero())
		})
	})

	Describe("ListRules", func() {
		It("should order rules by minimum amount", func() {
			rules, err := service.ListRules(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(3))
			Expect(rules[0].AutoApprove).To(BeTrue())
			Expect(rules[0].RequiredApprovers).To(BeZero())
			Expect(rules[2].MaxAmount).To(BeNil())
			Expect(rules[2].RequiredApprovers).To(Equal(2))
		})
	})

	Describe("CreateRule", func() {
		It("should fill the gap left by the defaults", func() {
			rule, err := service.CreateRule(ctx, approvalrule.CreateRuleDTO{
				MinAmount:         dec("99.99"),
				MaxAmount:         dec("100"),
				RequiredApprovers: intPtr(1),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(rule.ID).To(BeNumerically(">", 0))

			coverage, err := service.Coverage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(coverage.Gaps).To(BeEmpty())
		})

		DescribeTable("should validate the rule",
			func(dto approvalrule.CreateRuleDTO, code internal.ErrorCode) {
				_, err := service.CreateRule(ctx, dto)
				expectCode(err, code)
			},
			Entry("missing min", approvalrule.CreateRuleDTO{}, internal.ErrCodeInvalidMinAmount),
			Entry("negative min", approvalrule.CreateRuleDTO{MinAmount: dec("-1")}, internal.ErrCodeInvalidMinAmount),
			Entry("max not above min", approvalrule.CreateRuleDTO{MinAmount: dec("10"), MaxAmount: dec("10")}, internal.ErrCodeInvalidMaxAmount),
			Entry("negative approvers", approvalrule.CreateRuleDTO{MinAmount: dec("10"), RequiredApprovers: intPtr(-1)}, internal.ErrCodeInvalidRequiredApprovers),
			Entry("overlapping", approvalrule.CreateRuleDTO{MinAmount: dec("500"), MaxAmount: dec("700")}, internal.ErrCodeOverlappingRule),
			Entry("max equal to min once rounded", approvalrule.CreateRuleDTO{MinAmount: dec("20000.001"), MaxAmount: dec("20000.004")}, internal.ErrCodeInvalidMaxAmount),
			Entry("min above the column limit", approvalrule.CreateRuleDTO{MinAmount: dec("1000000000000")}, internal.ErrCodeInvalidMinAmount),
			Entry("max above the column limit", approvalrule.CreateRuleDTO{MinAmount: dec("10"), MaxAmount: dec("1000000000000")}, internal.ErrCodeInvalidMaxAmount),
		)

		It("should store the rounded bounds", func() {
			db.Gorm.Exec("DELETE FROM approval_rules")

			rule, err := service.CreateRule(ctx, approvalrule.CreateRuleDTO{MinAmount: dec("10.004"), MaxAmount: dec("20.005")})

			Expect(err).NotTo(HaveOccurred())
			Expect(rule.MinAmount).To(Equal(10.0))
			Expect(*rule.MaxAmount).To(Equal(20.01))
		})

		It("should lock the rule table before checking for overlaps", func() {
			var calls []string
			repo := &recordingRepository{RepositoryAPI: postgres.NewApprovalRuleRepository(db.Gorm), calls: &calls}
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

			_, err := approvalrule.NewService(repo, logger).CreateRule(ctx, approvalrule.CreateRuleDTO{
				MinAmount: dec("99.99"),
				MaxAmount: dec("100"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal([]string{"lock", "list", "create"}))
		})

		It("should let only one of two overlapping concurrent rules in", func() {
			db.Gorm.Exec("DELETE FROM approval_rules")

			results := make(chan error, 2)
			for _, bounds := range [][2]string{{"0", "100"}, {"50", "150"}} {
				go func(lo, hi string) {
					defer GinkgoRecover()
					_, err := service.CreateRule(ctx, approvalrule.CreateRuleDTO{MinAmount: dec(lo), MaxAmount: dec(hi)})
					results <- err
				}(bounds[0], bounds[1])
			}

			errs := []error{<-results, <-results}
			Expect(errs).To(ContainElement(BeNil()))
			Expect(errs).To(ContainElement(MatchError(internal.ErrOverlappingRule)))

			rules, err := service.ListRules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(1))
		})
	})

	Describe("MatchRule", func() {
		It("should find the covering rule", func() {
			rule, err := service.MatchRule(ctx, "250")
			Expect(err).NotTo(HaveOccurred())
			Expect(rule.RequiredApprovers).To(Equal(1))

			rule, err = service.MatchRule(ctx, "1000")
			Expect(err).NotTo(HaveOccurred())
			Expect(rule.RequiredApprovers).To(Equal(2))
		})

		It("should report amounts in a gap", func() {
			_, err := service.MatchRule(ctx, "99.995")
			expectCode(err, internal.ErrCodeRuleNotFound)
		})

		It("should reject malformed amounts", func() {
			_, err := service.MatchRule(ctx, "ten")
			expectCode(err, internal.ErrCodeInvalidAmount)
		})
	})

	Describe("Handler", func() {
		var handler *approvalrule.Handler

		BeforeEach(func() {
			handler = approvalrule.NewHandler(transport.NewBaseHandler(nil), service)
		})

		It("should create through POST and answer 409 on overlap", func() {
			recorder := httptest.NewRecorder()
			handler.CreateRule(recorder, httptest.NewRequest(http.MethodPost, "/approval-rules",
				strings.NewReader(`{"minAmount":200,"maxAmount":300}`)))

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			var body internal.ErrorResponse
			Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Code).To(Equal("OVERLAPPING_RULE"))
		})

		It("should answer 404 when no rule matches", func() {
			recorder := httptest.NewRecorder()
			handler.MatchRule(recorder, httptest.NewRequest(http.MethodGet, "/approval-rules/match?amount=99.995", nil))

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})
})
