package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avetrov/todo-api/internal/apperror"
)

const testUserID = "507f1f77bcf86cd799439011"

func TestIssueVerify_Roundtrip(t *testing.T) {
	svc := New("test-secret")

	signed, err := svc.Issue(testUserID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
}

func TestIssue_UniquePerCall(t *testing.T) {
	svc := New("test-secret")

	first, err := svc.Issue(testUserID)
	require.NoError(t, err)
	second, err := svc.Issue(testUserID)
	require.NoError(t, err)

	// Two sessions for the same user must yield distinct tokens, or
	// logging out one would revoke the other.
	assert.NotEqual(t, first, second)
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := New("test-secret").Issue(testUserID)
	require.NoError(t, err)

	_, err = New("another-secret").Verify(signed)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestVerify_Tampered(t *testing.T) {
	svc := New("test-secret")
	signed, err := svc.Issue(testUserID)
	require.NoError(t, err)

	last := signed[len(signed)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := signed[:len(signed)-1] + string(flipped)

	_, err = svc.Verify(tampered)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestVerify_WrongPurpose(t *testing.T) {
	claims := Claims{UserID: testUserID, Access: "refresh"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = New("test-secret").Verify(signed)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestVerify_MissingUserID(t *testing.T) {
	claims := Claims{Access: "auth"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = New("test-secret").Verify(signed)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestVerify_UnsignedToken(t *testing.T) {
	claims := Claims{UserID: testUserID, Access: "auth"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("test-secret").Verify(signed)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestVerify_Garbage(t *testing.T) {
	_, err := New("test-secret").Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}
