package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numtrip/numtrip-backend/internal/models"
)

var claimRowColumns = []string{
	"id", "business_id", "user_id", "status", "verification_type", "contact_value",
	"verification_code", "code_expires_at", "claim_reason", "admin_notes",
	"ip_address", "user_agent", "created_at", "updated_at", "verified_at", "approved_at",
}

func sampleClaimRow(id, businessID, userID uuid.UUID, status models.ClaimStatus) *sqlmock.Rows {
	now := time.Now()
	expiresAt := now.Add(15 * time.Minute)

	return sqlmock.NewRows(claimRowColumns).AddRow(
		id.String(), businessID.String(), userID.String(), string(status), "EMAIL",
		"reservas@hotelcaribe.co", "482913", expiresAt, nil, nil,
		"190.85.1.10", "Mozilla/5.0", now, now, nil, nil,
	)
}

func TestGetClaimByID(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	t.Run("Found", func(t *testing.T) {
		claimID := uuid.New()
		businessID := uuid.New()
		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE id = \$1`).
			WithArgs(claimID).
			WillReturnRows(sampleClaimRow(claimID, businessID, userID, models.ClaimStatusPending))

		claim, err := repo.GetByID(claimID)
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, claimID, claim.ID)
		assert.Equal(t, businessID, claim.BusinessID)
		assert.Equal(t, models.ClaimStatusPending, claim.Status)
		assert.Equal(t, models.VerificationEmail, claim.VerificationType)
		require.NotNil(t, claim.VerificationCode)
		assert.Equal(t, "482913", *claim.VerificationCode)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		claimID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE id = \$1`).
			WithArgs(claimID).
			WillReturnError(sql.ErrNoRows)

		claim, err := repo.GetByID(claimID)
		require.NoError(t, err)
		assert.Nil(t, claim)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		claimID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE id = \$1`).
			WithArgs(claimID).
			WillReturnError(fmt.Errorf("connection refused"))

		claim, err := repo.GetByID(claimID)
		assert.Error(t, err)
		assert.Nil(t, claim)
		assert.Contains(t, err.Error(), "failed to get claim by ID")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetClaimByBusinessAndUser(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	t.Run("Found", func(t *testing.T) {
		claimID := uuid.New()
		businessID := uuid.New()
		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE business_id = \$1 AND user_id = \$2`).
			WithArgs(businessID, userID).
			WillReturnRows(sampleClaimRow(claimID, businessID, userID, models.ClaimStatusExpired))

		claim, err := repo.GetByBusinessAndUser(businessID, userID)
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, models.ClaimStatusExpired, claim.Status)
		assert.Equal(t, userID, claim.UserID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE business_id = \$1 AND user_id = \$2`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		claim, err := repo.GetByBusinessAndUser(uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, claim)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertClaim(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		code := "482913"
		expiresAt := time.Now().Add(15 * time.Minute)
		claim := &models.BusinessClaim{
			BusinessID:       uuid.New(),
			UserID:           uuid.New(),
			Status:           models.ClaimStatusPending,
			VerificationType: models.VerificationEmail,
			ContactValue:     "reservas@hotelcaribe.co",
			VerificationCode: &code,
			CodeExpiresAt:    &expiresAt,
			IPAddress:        "190.85.1.10",
			UserAgent:        "Mozilla/5.0",
		}

		existingID := uuid.New()
		createdAt := time.Now().Add(-time.Hour)

		mock.ExpectQuery(`INSERT INTO business_claims`).
			WithArgs(
				sqlmock.AnyArg(), claim.BusinessID, claim.UserID,
				models.ClaimStatusPending, models.VerificationEmail,
				"reservas@hotelcaribe.co", &code, &expiresAt, nil,
				"190.85.1.10", "Mozilla/5.0", sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(existingID.String(), createdAt))

		err := repo.Upsert(claim)
		require.NoError(t, err)
		// On conflict the row keeps its original identity.
		assert.Equal(t, existingID, claim.ID)
		assert.WithinDuration(t, createdAt, claim.CreatedAt, time.Second)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		claim := &models.BusinessClaim{
			BusinessID:       uuid.New(),
			UserID:           uuid.New(),
			Status:           models.ClaimStatusPending,
			VerificationType: models.VerificationSMS,
			ContactValue:     "+573001234567",
		}

		mock.ExpectQuery(`INSERT INTO business_claims`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Upsert(claim)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert claim")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkClaimExpired(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	claimID := uuid.New()

	mock.ExpectExec(`UPDATE business_claims`).
		WithArgs(sqlmock.AnyArg(), claimID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkExpired(claimID)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveClaimTx(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	claimID := uuid.New()
	approvedAt := time.Now()
	notes := "Verified by phone call"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE business_claims`).
			WithArgs(&notes, approvedAt, claimID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := mockDB.Beginx()
		require.NoError(t, err)

		err = repo.ApproveTx(tx, claimID, approvedAt, &notes)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Claim Not Found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE business_claims`).
			WithArgs(nil, approvedAt, claimID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := mockDB.Beginx()
		require.NoError(t, err)

		err = repo.ApproveTx(tx, claimID, approvedAt, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "claim not found")
		require.NoError(t, tx.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRejectClaim(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	claimID := uuid.New()
	notes := "Business documents did not match"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE business_claims`).
			WithArgs(&notes, sqlmock.AnyArg(), claimID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Reject(claimID, &notes)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Claim Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE business_claims`).
			WithArgs(nil, sqlmock.AnyArg(), claimID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Reject(claimID, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "claim not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListClaimsByUser(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	userID := uuid.New()
	claimID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM business_claims WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID).
		WillReturnRows(sampleClaimRow(claimID, uuid.New(), userID, models.ClaimStatusApproved))

	claims, err := repo.ListByUser(userID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, claimID, claims[0].ID)
	assert.Equal(t, models.ClaimStatusApproved, claims[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClaimsByStatus(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		claimID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM business_claims\s+WHERE status = \$1::claim_status\s+ORDER BY created_at ASC\s+LIMIT \$2 OFFSET \$3`).
			WithArgs(models.ClaimStatusPending, 50, 0).
			WillReturnRows(sampleClaimRow(claimID, uuid.New(), uuid.New(), models.ClaimStatusPending))

		claims, err := repo.ListByStatus(models.ClaimStatusPending, 50, 0)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, models.ClaimStatusPending, claims[0].Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM business_claims`).
			WithArgs(models.ClaimStatusRejected, 50, 0).
			WillReturnRows(sqlmock.NewRows(claimRowColumns))

		claims, err := repo.ListByStatus(models.ClaimStatusRejected, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, claims)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountClaimsByStatus(t *testing.T) {
	mockDB, mock := newTestDB(t)
	repo := NewClaimRepository(mockDB)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM business_claims GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("approved", 11).
			AddRow("expired", 2))

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, models.ClaimStatusPending, counts[0].Status)
	assert.Equal(t, 4, counts[0].Count)
	assert.Equal(t, models.ClaimStatusApproved, counts[1].Status)
	assert.Equal(t, 11, counts[1].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
