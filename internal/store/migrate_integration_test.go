// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/Imfractical/uprofile/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(databaseURL)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(migrator.Close()).To(Succeed()) })
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1, 2, 3, 4}))
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(4)))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed(), "a second Up is a no-op")
	})

	It("steps back and forward", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(4)))
	})

	Describe("schema", func() {
		var pool *pgxpool.Pool

		BeforeEach(func(ctx SpecContext) {
			var err error
			pool, err = store.Connect(ctx, databaseURL, store.DefaultConnectOptions())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(pool.Close)
		})

		It("rejects a second account with the same identifier", func(ctx SpecContext) {
			insert := `INSERT INTO accounts (id, identifier, credential_hash) VALUES ($1, $2, 'x')`
			_, err := pool.Exec(ctx, insert, "01J00000000000000000000001", "dup@example.com")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				_, _ = pool.Exec(context.Background(), `DELETE FROM accounts WHERE identifier = 'dup@example.com'`)
			})

			_, err = pool.Exec(ctx, insert, "01J00000000000000000000002", "dup@example.com")
			var pgErr *pgconn.PgError
			Expect(errors.As(err, &pgErr)).To(BeTrue())
			Expect(pgErr.Code).To(Equal(pgerrcode.UniqueViolation))
		})

		It("rejects identifiers that are not lower case", func(ctx SpecContext) {
			_, err := pool.Exec(ctx,
				`INSERT INTO accounts (id, identifier, credential_hash) VALUES ($1, $2, 'x')`,
				"01J00000000000000000000003", "Mixed@Example.com")
			var pgErr *pgconn.PgError
			Expect(errors.As(err, &pgErr)).To(BeTrue())
			Expect(pgErr.Code).To(Equal(pgerrcode.CheckViolation))
		})
	})

	It("reverts everything", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})
})
