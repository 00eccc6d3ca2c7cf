package client_test

import (
	"context"
	"errors"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/client"
	"github.com/frahmantamala/expense-tracker/internal/tracker"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

var _ = Describe("Identity", func() {
	var (
		ctx context.Context
		be  *backend
		idp *client.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		be = startBackend()
		idp = be.identity()
	})

	AfterEach(func() {
		be.stop()
	})

	register := func(email string) {
		Expect(idp.SignUp(ctx, email, "secret-pass")).To(Succeed())
	}

	It("is unresolved until Resolve runs, then signed out without credentials", func() {
		_, resolved := idp.CurrentUser()
		Expect(resolved).To(BeFalse())

		var seen []*tracker.Session
		idp.Subscribe(func(s *tracker.Session) { seen = append(seen, s) })

		Expect(idp.Resolve(ctx)).To(Succeed())

		current, resolved := idp.CurrentUser()
		Expect(resolved).To(BeTrue())
		Expect(current).To(BeNil())
		Expect(seen).To(Equal([]*tracker.Session{nil}))
	})

	It("signs up without signing in", func() {
		var calls int
		idp.Subscribe(func(*tracker.Session) { calls++ })

		register("new@example.com")

		Expect(calls).To(BeZero())
		_, resolved := idp.CurrentUser()
		Expect(resolved).To(BeFalse())
	})

	It("notifies subscribers in order on sign-in and stores the refresh token", func() {
		register("a@example.com")

		var order []string
		idp.Subscribe(func(s *tracker.Session) { order = append(order, "first:"+s.Email) })
		idp.Subscribe(func(s *tracker.Session) { order = append(order, "second:"+s.Email) })

		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())

		Expect(order).To(Equal([]string{"first:a@example.com", "second:a@example.com"}))
		current, _ := idp.CurrentUser()
		Expect(current.UserID).NotTo(BeEmpty())

		creds, err := be.creds.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Email).To(Equal("a@example.com"))
		Expect(creds.RefreshToken).NotTo(BeEmpty())

		info, err := os.Stat(be.creds.Path())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("resumes a stored session in a new process", func() {
		register("a@example.com")
		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())
		first, _ := idp.CurrentUser()

		next := be.identity()
		Expect(next.Resolve(ctx)).To(Succeed())

		resumed, resolved := next.CurrentUser()
		Expect(resolved).To(BeTrue())
		Expect(resumed).To(Equal(first))
	})

	It("drops a stored session the backend rejects", func() {
		Expect(be.creds.Save(&client.Credentials{UserID: "u", Email: "x@example.com", RefreshToken: "garbage"})).To(Succeed())

		err := idp.Resolve(ctx)

		var authErr *client.AuthError
		Expect(errors.As(err, &authErr)).To(BeTrue())
		Expect(client.Code(err)).To(Equal("INVALID_TOKEN"))
		current, resolved := idp.CurrentUser()
		Expect(resolved).To(BeTrue())
		Expect(current).To(BeNil())

		creds, err := be.creds.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds).To(BeNil())
	})

	It("surfaces backend auth messages verbatim", func() {
		register("a@example.com")

		err := idp.SignIn(ctx, "a@example.com", "wrong-pass")
		Expect(err).To(MatchError("Invalid email or password"))
		Expect(client.Code(err)).To(Equal("INVALID_CREDENTIALS"))

		err = idp.SignUp(ctx, "a@example.com", "secret-pass")
		Expect(client.Code(err)).To(Equal("EMAIL_ALREADY_IN_USE"))

		err = idp.SignUp(ctx, "b@example.com", "123")
		Expect(client.Code(err)).To(Equal("WEAK_PASSWORD"))
		Expect(err).To(MatchError("Password should be at least 6 characters"))

		err = idp.SignUp(ctx, "not-an-email", "secret-pass")
		Expect(client.Code(err)).To(Equal("INVALID_EMAIL"))
	})

	It("signs out locally and forgets the credentials", func() {
		register("a@example.com")
		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())

		var last *tracker.Session
		idp.Subscribe(func(s *tracker.Session) { last = s })
		Expect(last).NotTo(BeNil())

		Expect(idp.SignOut(ctx)).To(Succeed())

		Expect(last).To(BeNil())
		creds, err := be.creds.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds).To(BeNil())

		_, _, err = idp.Token(ctx)
		Expect(err).To(MatchError(client.ErrNotSignedIn))
	})

	It("refreshes an access token that is about to expire", func() {
		register("a@example.com")
		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())
		before, userID, err := idp.Token(ctx)
		Expect(err).NotTo(HaveOccurred())

		idp.SetClock(func() time.Time { return time.Now().Add(15 * time.Minute) })
		after, sameUser, err := idp.Token(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(sameUser).To(Equal(userID))
		Expect(after).NotTo(Equal(before))
	})

	It("does not bring back a session signed out during a token refresh", func() {
		register("a@example.com")
		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())
		idp.SetClock(func() time.Time { return time.Now().Add(15 * time.Minute) })
		be.holdRefresh.Store(true)

		done := make(chan error, 1)
		go func() {
			_, _, err := idp.Token(ctx)
			done <- err
		}()
		Eventually(be.refreshEntered).Should(Receive())

		Expect(idp.SignOut(ctx)).To(Succeed())
		close(be.releaseRefresh)

		Eventually(done).Should(Receive(MatchError(client.ErrNotSignedIn)))
		stored, err := be.creds.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(BeNil())
		session, resolved := idp.CurrentUser()
		Expect(resolved).To(BeTrue())
		Expect(session).To(BeNil())
	})

	It("reads and updates the profile", func() {
		register("a@example.com")
		Expect(idp.SignIn(ctx, "a@example.com", "secret-pass")).To(Succeed())

		name := "Ada"
		profile, err := idp.UpdateProfile(ctx, user.UpdateProfileDTO{DisplayName: &name})
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.DisplayName).To(Equal("Ada"))

		profile, err = idp.Profile(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.Email).To(Equal("a@example.com"))
		Expect(profile.DisplayName).To(Equal("Ada"))
	})
})
