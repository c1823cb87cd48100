// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

//go:build integration

package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func login(username, password string) (*auth.Session, string, error) {
	return env.Auth.Login(env.ctx, auth.LoginRequest{Username: username, Password: password})
}

var _ = Describe("Authentication", func() {
	Describe("lockout", func() {
		It("locks after five failures and unlocks once the lock elapses", func() {
			_, err := env.Auth.Register(env.ctx, "alice", "alice@x.com", "Passw0rd1")
			Expect(err).NotTo(HaveOccurred())

			for i := 1; i < 5; i++ {
				_, _, err := login("alice", "wrong")
				Expect(errutil.Code(err)).To(Equal(auth.CodeInvalidCredentials))
			}
			_, _, err = login("alice", "wrong")
			Expect(errutil.Code(err)).To(Equal(auth.CodeAccountLocked))

			_, _, err = login("alice", "Passw0rd1")
			Expect(errutil.Code(err)).To(Equal(auth.CodeAccountLocked),
				"the lock takes precedence over a correct password")

			env.clock.Advance(31 * time.Minute)
			session, token, err := login("alice", "Passw0rd1")
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())

			account, err := env.Accounts.GetByID(env.ctx, session.AccountID)
			Expect(err).NotTo(HaveOccurred())
			Expect(account.FailedAttempts).To(Equal(0))
			Expect(account.LockedUntil).To(BeNil())
			Expect(account.LastLogin).NotTo(BeNil())
		})
	})

	Describe("registration", func() {
		It("rejects usernames that differ only by case", func() {
			register("alice")
			_, err := env.Auth.Register(env.ctx, "Alice", "other@example.com", "Passw0rd1")
			Expect(errutil.Code(err)).To(Equal(auth.CodeDuplicateAccount))
		})

		It("rejects a reused email", func() {
			register("alice")
			_, err := env.Auth.Register(env.ctx, "alicia", "alice@example.com", "Passw0rd1")
			Expect(errutil.Code(err)).To(Equal(auth.CodeDuplicateAccount))
		})
	})

	Describe("sessions", func() {
		It("expires sessions after the absolute lifetime", func() {
			register("alice")
			_, token, err := login("alice", "Passw0rd1")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Auth.ValidateSession(env.ctx, token)
			Expect(err).NotTo(HaveOccurred())

			env.clock.Advance(auth.DefaultSessionLifetime)
			_, err = env.Auth.ValidateSession(env.ctx, token)
			Expect(errutil.Code(err)).To(Equal(auth.CodeSessionExpired))
		})

		It("revokes the prior session on re-login", func() {
			register("alice")
			_, first, err := login("alice", "Passw0rd1")
			Expect(err).NotTo(HaveOccurred())

			_, second, err := env.Auth.Login(env.ctx, auth.LoginRequest{
				Username: "alice", Password: "Passw0rd1", PriorToken: first,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Auth.ValidateSession(env.ctx, first)
			Expect(errutil.Code(err)).To(Equal(auth.CodeSessionInvalid))
			_, err = env.Auth.ValidateSession(env.ctx, second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sweeps expired sessions", func() {
			register("alice")
			_, _, err := login("alice", "Passw0rd1")
			Expect(err).NotTo(HaveOccurred())

			n, err := env.Sessions.DeleteExpired(env.ctx, env.clock.Now().Add(auth.DefaultSessionLifetime+time.Second))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
		})
	})
})
