// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/pkg/errutil"
)

var profileRowColumns = []string{
	"account_id", "birth_date", "bio", "location", "relationship", "avatar_ref", "updated_at",
}

func TestProfileRepository_CreateDefault(t *testing.T) {
	p := account.NewDefaultProfile(ulid.Make(), time.Date(1996, 5, 4, 0, 0, 0, 0, time.UTC))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(p.AccountID.String(), p.BirthDate, "", "", "", "", p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewProfileRepository(mock).CreateDefault(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Get(t *testing.T) {
	accountID := ulid.Make()
	birth := time.Date(1996, 5, 4, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *account.Profile
		wantErr   error
		wantCode  string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM profiles\s+WHERE account_id = \$1`).
					WithArgs(accountID.String()).
					WillReturnRows(pgxmock.NewRows(profileRowColumns).
						AddRow(accountID.String(), birth, "Curious.", "Oxford", "single", "avatars/alice.png", updated))
			},
			want: &account.Profile{
				AccountID:    accountID,
				BirthDate:    birth,
				Bio:          "Curious.",
				Location:     "Oxford",
				Relationship: "single",
				AvatarRef:    "avatars/alice.png",
				UpdatedAt:    updated,
			},
		},
		{
			name: "missing",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM profiles`).
					WillReturnRows(pgxmock.NewRows(profileRowColumns))
			},
			wantErr:  account.ErrNotFound,
			wantCode: "PROFILE_NOT_FOUND",
		},
		{
			name: "query error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM profiles`).
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "PROFILE_GET_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewProfileRepository(mock).Get(context.Background(), accountID)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileRepository_Update(t *testing.T) {
	p := &account.Profile{
		AccountID: ulid.Make(),
		Bio:       "Down the rabbit hole",
		UpdatedAt: time.Now(),
	}

	t.Run("updates editable fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE profiles`).
			WithArgs(p.AccountID.String(), p.Bio, "", "", "", p.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewProfileRepository(mock).Update(context.Background(), p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE profiles`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewProfileRepository(mock).Update(context.Background(), p)
		require.ErrorIs(t, err, account.ErrNotFound)
	})
}
