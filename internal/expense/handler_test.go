package expense_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/database"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/expense/postgres"
	"github.com/frahmantamala/expense-approval/internal/setting"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

var _ = Describe("ExpenseHandler", func() {
	var (
		db     *database.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Gorm.Create(&userDatamodel.User{
			Email: "employee@company.com", Name: "John Doe", Role: "employee", Department: "Engineering",
		}).Error).NotTo(HaveOccurred())
		Expect(db.Gorm.Create(&userDatamodel.User{
			Email: "manager@company.com", Name: "Jane Smith", Role: "manager", Department: "Engineering",
		}).Error).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc := expense.NewService(postgres.NewExpenseRepository(db.Gorm), setting.Defaults(), nil, logger)
		handler := expense.NewHandler(transport.NewBaseHandler(logger), svc)

		router = chi.NewRouter()
		router.Get("/expenses", handler.ListExpenses)
		router.Post("/expenses", handler.CreateExpense)
		router.Put("/expenses", handler.UpdateExpenseByQuery)
		router.Delete("/expenses", handler.DeleteExpense)
		router.Get("/expenses/{id}", handler.GetExpense)
		router.Patch("/expenses/{id}", handler.UpdateExpense)
		router.Post("/expenses/{id}/approve", handler.ApproveExpense)
		router.Post("/expenses/{id}/reject", handler.RejectExpense)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder
	}

	errorCode := func(recorder *httptest.ResponseRecorder) string {
		var body internal.ErrorResponse
		ExpectWithOffset(1, json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
		ExpectWithOffset(1, body.Error).NotTo(BeEmpty())
		return body.Code
	}

	create := func() expense.ExpenseResponse {
		recorder := do(http.MethodPost, "/expenses",
			`{"userId":1,"title":" Client dinner ","amount":120.456,"category":"Meals","currency":"gbp"}`)
		ExpectWithOffset(1, recorder.Code).To(Equal(http.StatusCreated))
		var created expense.ExpenseResponse
		ExpectWithOffset(1, json.Unmarshal(recorder.Body.Bytes(), &created)).To(Succeed())
		return created
	}

	Describe("POST /expenses", func() {
		It("should create a draft and round-trip through GET", func() {
			created := create()
			Expect(created.Status).To(Equal("draft"))
			Expect(created.Currency).To(Equal("GBP"))
			Expect(created.Amount).To(Equal(120.46))

			recorder := do(http.MethodGet, "/expenses/"+itoa(created.ID), "")
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var raw map[string]interface{}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &raw)).To(Succeed())
			Expect(raw["title"]).To(Equal("Client dinner"))
			Expect(raw["amount"]).To(Equal(120.46))
			Expect(raw["currency"]).To(Equal("GBP"))
			Expect(raw["category"]).To(Equal("Meals"))
			Expect(raw["approvalHistory"]).To(Equal([]interface{}{}))
		})

		It("should return 400 with a code on validation failure", func() {
			recorder := do(http.MethodPost, "/expenses", `{"userId":1,"title":"x","amount":-1,"category":"c"}`)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(recorder)).To(Equal("INVALID_AMOUNT"))
		})

		It("should return 400 for malformed JSON", func() {
			recorder := do(http.MethodPost, "/expenses", `{"userId":`)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(recorder)).To(Equal("INVALID_JSON"))
		})
	})

	Describe("GET /expenses", func() {
		It("should return an array joined with the owner", func() {
			create()

			recorder := do(http.MethodGet, "/expenses?limit=5&currency=gbp", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var rows []map[string]interface{}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &rows)).To(Succeed())
			Expect(rows).To(HaveLen(1))
			owner := rows[0]["user"].(map[string]interface{})
			Expect(owner["name"]).To(Equal("John Doe"))
			Expect(owner["department"]).To(Equal("Engineering"))
		})

		It("should return an empty array when nothing matches", func() {
			recorder := do(http.MethodGet, "/expenses?status=approved", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`[]`))
		})

		It("should reject a negative offset", func() {
			recorder := do(http.MethodGet, "/expenses?offset=-3", "")
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(recorder)).To(Equal("INVALID_OFFSET"))
		})
	})

	Describe("updates", func() {
		It("should update through PUT with a query id", func() {
			created := create()

			recorder := do(http.MethodPut, "/expenses?id="+itoa(created.ID), `{"amount":"80"}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var updated expense.ExpenseResponse
			Expect(json.Unmarshal(recorder.Body.Bytes(), &updated)).To(Succeed())
			Expect(updated.Amount).To(Equal(80.0))
			Expect(updated.Title).To(Equal("Client dinner"))
		})

		It("should require a valid id for PUT", func() {
			recorder := do(http.MethodPut, "/expenses?id=abc", `{"amount":1}`)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(recorder)).To(Equal("INVALID_ID"))
		})

		It("should return 404 for a missing expense", func() {
			recorder := do(http.MethodPatch, "/expenses/404", `{"title":"x"}`)
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(errorCode(recorder)).To(Equal("EXPENSE_NOT_FOUND"))
		})
	})

	Describe("DELETE /expenses", func() {
		It("should return the deleted snapshot", func() {
			created := create()

			recorder := do(http.MethodDelete, "/expenses?id="+itoa(created.ID), "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var resp expense.DeleteResponse
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Message).To(Equal("Expense deleted successfully"))
			Expect(resp.DeletedExpense.ID).To(Equal(created.ID))

			Expect(do(http.MethodGet, "/expenses/"+itoa(created.ID), "").Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("approval workflow", func() {
		It("should submit, approve and expose the history", func() {
			created := create()
			id := itoa(created.ID)
			Expect(do(http.MethodPatch, "/expenses/"+id, `{"status":"pending"}`).Code).To(Equal(http.StatusOK))

			recorder := do(http.MethodPost, "/expenses/"+id+"/approve", `{"approverId":2,"comments":"ok"}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var approved expense.ApproveResponse
			Expect(json.Unmarshal(recorder.Body.Bytes(), &approved)).To(Succeed())
			Expect(approved.Status).To(Equal("approved"))
			Expect(approved.Approval.ApproverName).To(Equal("Jane Smith"))

			again := do(http.MethodPost, "/expenses/"+id+"/reject", `{"approverId":2,"comments":"changed my mind"}`)
			Expect(again.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(again)).To(Equal("INVALID_EXPENSE_STATUS"))

			var detail expense.ExpenseDetailResponse
			Expect(json.Unmarshal(do(http.MethodGet, "/expenses/"+id, "").Body.Bytes(), &detail)).To(Succeed())
			Expect(detail.ApprovalHistory).To(HaveLen(1))
			Expect(detail.ApprovalHistory[0].Status).To(Equal("approved"))
		})

		It("should reject with mandatory comments", func() {
			created := create()
			id := itoa(created.ID)
			Expect(do(http.MethodPatch, "/expenses/"+id, `{"status":"pending"}`).Code).To(Equal(http.StatusOK))

			missing := do(http.MethodPost, "/expenses/"+id+"/reject", `{"approverId":2}`)
			Expect(missing.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(missing)).To(Equal("MISSING_COMMENTS"))

			recorder := do(http.MethodPost, "/expenses/"+id+"/reject", `{"approverId":"2","comments":"no receipt"}`)
			Expect(recorder.Code).To(Equal(http.StatusOK))
			var rejected expense.RejectResponse
			Expect(json.Unmarshal(recorder.Body.Bytes(), &rejected)).To(Succeed())
			Expect(rejected.Status).To(Equal("rejected"))
			Expect(rejected.Rejection.Comments).To(Equal("no receipt"))
		})

		It("should validate the path id before the body", func() {
			recorder := do(http.MethodPost, "/expenses/abc/approve", `not json`)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(recorder)).To(Equal("INVALID_ID"))
		})

		It("should return 404 for an unknown approver", func() {
			created := create()
			id := itoa(created.ID)
			Expect(do(http.MethodPatch, "/expenses/"+id, `{"status":"pending"}`).Code).To(Equal(http.StatusOK))

			recorder := do(http.MethodPost, "/expenses/"+id+"/approve", `{"approverId":99}`)
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(errorCode(recorder)).To(Equal("APPROVER_NOT_FOUND"))
		})
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
