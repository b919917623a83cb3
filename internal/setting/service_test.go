package setting_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	settingDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/setting"
	"github.com/frahmantamala/expense-approval/internal/database"
	"github.com/frahmantamala/expense-approval/internal/setting"
	"github.com/frahmantamala/expense-approval/internal/setting/postgres"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

func TestSetting(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Setting Suite")
}

var _ = Describe("SettingService", func() {
	var (
		db      *database.DB
		service *setting.Service
		logger  *slog.Logger
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = setting.NewService(postgres.NewSettingRepository(db.Gorm), logger)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	store := func(key, value string) {
		ExpectWithOffset(1, db.Gorm.Create(&settingDatamodel.CompanySetting{Key: key, Value: value}).Error).NotTo(HaveOccurred())
	}

	It("should fall back to defaults on an empty table", func() {
		settings, err := service.Load(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(settings.DefaultCurrency).To(Equal("USD"))
		Expect(settings.MaxReceiptSizeMB).To(Equal(10))
		Expect(settings.RequireReceiptOverAmount.Equal(decimal.NewFromInt(25))).To(BeTrue())
	})

	It("should overlay stored values", func() {
		store(setting.KeyDefaultCurrency, "eur")
		store(setting.KeyExpenseCategories, `["Travel","Training"]`)
		store(setting.KeyRequireReceiptOverAmount, "50.5")

		settings, err := service.Load(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(settings.DefaultCurrency).To(Equal("EUR"))
		Expect(settings.ExpenseCategories).To(Equal([]string{"Travel", "Training"}))
		Expect(settings.RequireReceiptOverAmount.String()).To(Equal("50.5"))
	})

	It("should keep defaults for malformed values", func() {
		store(setting.KeyMaxReceiptSizeMB, "lots")
		store(setting.KeyExpenseCategories, "Travel, Meals")

		settings, err := service.Load(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(settings.MaxReceiptSizeMB).To(Equal(10))
		Expect(settings.ExpenseCategories).To(Equal(setting.Defaults().ExpenseCategories))
	})

	It("should seed defaults without overwriting stored values", func() {
		store(setting.KeyDefaultCurrency, "GBP")

		Expect(service.SeedDefaults(ctx)).To(Succeed())
		Expect(service.SeedDefaults(ctx)).To(Succeed())

		rows, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(len(setting.DefaultRows())))

		settings, err := service.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(settings.DefaultCurrency).To(Equal("GBP"))
	})

	It("should expose effective settings and stored rows", func() {
		Expect(service.SeedDefaults(ctx)).To(Succeed())
		handler := setting.NewHandler(transport.NewBaseHandler(logger), service)
		recorder := httptest.NewRecorder()

		handler.GetSettings(recorder, httptest.NewRequest(http.MethodGet, "/settings", nil))

		Expect(recorder.Code).To(Equal(http.StatusOK))
		var resp setting.SettingsResponse
		Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.DefaultCurrency).To(Equal("USD"))
		Expect(resp.RequireReceiptOverAmount).To(Equal(25.0))
		Expect(resp.Settings).To(HaveLen(4))
	})
})
