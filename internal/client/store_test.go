package client_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/client"
	"github.com/frahmantamala/expense-tracker/internal/tracker"
)

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		be      *backend
		idp     *client.Identity
		store   *client.Store
		session tracker.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		be = startBackend()
		idp = be.identity()
		store = client.NewStore(be.api, idp)

		Expect(idp.SignUp(ctx, "owner@example.com", "secret-pass")).To(Succeed())
		Expect(idp.SignIn(ctx, "owner@example.com", "secret-pass")).To(Succeed())
		current, _ := idp.CurrentUser()
		session = *current
	})

	AfterEach(func() {
		be.stop()
	})

	It("creates records with server timestamps and lists them", func() {
		id, err := store.Create(ctx, session.UserID, tracker.Fields{Category: "Food", Amount: "12.50"})
		Expect(err).NotTo(HaveOccurred())

		records, err := store.ListAll(ctx, session.UserID)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].ID).To(Equal(id))
		Expect(records[0].CreatedAt).NotTo(BeNil())
		Expect(*records[0].UpdatedAt).To(BeTemporally("==", *records[0].CreatedAt))
	})

	It("refuses to act for another user id", func() {
		_, err := store.ListAll(ctx, "someone-else")

		var storeErr *client.StoreError
		Expect(errors.As(err, &storeErr)).To(BeTrue())
		Expect(storeErr.Op).To(Equal("list"))
		Expect(errors.Is(err, client.ErrWrongAccount)).To(BeTrue())
	})

	It("requires a user id", func() {
		_, err := store.ListAll(ctx, "")
		Expect(errors.Is(err, tracker.ErrNoSession)).To(BeTrue())
	})

	It("reports a missing record as a store error with the backend code", func() {
		err := store.Delete(ctx, session.UserID, "does-not-exist")

		var storeErr *client.StoreError
		Expect(errors.As(err, &storeErr)).To(BeTrue())
		Expect(storeErr.ID).To(Equal("does-not-exist"))
		Expect(client.Code(err)).To(Equal("EXPENSE_NOT_FOUND"))
		Expect(err).To(MatchError("Expense not found"))
	})

	It("lists the categories in use", func() {
		_, err := store.Create(ctx, session.UserID, tracker.Fields{Category: "Food", Amount: "1"})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Create(ctx, session.UserID, tracker.Fields{Category: "Food", Amount: "2"})
		Expect(err).NotTo(HaveOccurred())

		categories, err := store.Categories(ctx, session.UserID)
		Expect(err).NotTo(HaveOccurred())
		Expect(categories).To(HaveLen(1))
		Expect(categories[0].Name).To(Equal("Food"))
		Expect(categories[0].Count).To(BeEquivalentTo(2))
	})

	Describe("driven by the tracker controller", func() {
		var (
			ctrl  *tracker.Controller
			notes []tracker.Notification
		)

		BeforeEach(func() {
			notes = nil
			ctrl = tracker.NewController(store, session, tracker.NotifierFunc(func(n tracker.Notification) {
				notes = append(notes, n)
			}))
			Expect(ctrl.Refresh(ctx)).To(Succeed())
		})

		submit := func(category, amount, comments string) error {
			Expect(ctrl.SetField(tracker.FieldCategory, category)).To(Succeed())
			Expect(ctrl.SetField(tracker.FieldAmount, amount)).To(Succeed())
			Expect(ctrl.SetField(tracker.FieldComments, comments)).To(Succeed())
			return ctrl.Submit(ctx)
		}

		It("adds, edits and deletes through the backend", func() {
			Expect(ctrl.OpenForAdd()).To(Succeed())
			Expect(submit("Food", "12.50", "")).To(Succeed())

			records := ctrl.Records()
			Expect(records).To(HaveLen(1))
			created := records[0]
			Expect(created.Fields()).To(Equal(tracker.Fields{Category: "Food", Amount: "12.50"}))
			Expect(*created.UpdatedAt).To(BeTemporally("==", *created.CreatedAt))

			Expect(ctrl.OpenForEdit(created.ID)).To(Succeed())
			Expect(submit("Groceries", "15.00", "")).To(Succeed())

			records = ctrl.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).To(Equal(created.ID))
			Expect(records[0].Category).To(Equal("Groceries"))
			Expect(*records[0].CreatedAt).To(BeTemporally("==", *created.CreatedAt))
			Expect(*records[0].UpdatedAt).To(BeTemporally(">", *created.UpdatedAt))

			Expect(ctrl.Delete(ctx, created.ID)).To(Succeed())
			Expect(ctrl.Records()).To(BeEmpty())
			Expect(notes).To(BeEmpty())
		})

		It("notifies with the backend message when an update targets a vanished record", func() {
			Expect(ctrl.OpenForAdd()).To(Succeed())
			Expect(submit("Food", "1", "")).To(Succeed())
			rec := ctrl.Records()[0]

			Expect(store.Delete(ctx, session.UserID, rec.ID)).To(Succeed())

			Expect(ctrl.OpenForEdit(rec.ID)).To(Succeed())
			Expect(submit("Rent", "2", "")).NotTo(Succeed())

			Expect(ctrl.Form().Open()).To(BeTrue())
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Kind).To(Equal(tracker.Error))
			Expect(notes[0].Message).To(Equal("Expense not found"))
		})
	})
})
