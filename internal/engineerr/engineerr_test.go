package engineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &DatabaseError{Detail: "connection reset", Cause: cause}

	assert.Equal(t, "database error: connection reset", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Entity: "Account", Where: "_key=7"}
	assert.Equal(t, "not found: Account where _key=7", err.Error())
}

func TestAsClientDatabaseErrorHidesUnreachable(t *testing.T) {
	u := Unreachable("planner: unexpected selection node")
	mapped := AsClientDatabaseError(u)

	require.NotNil(t, mapped)
	assert.Equal(t, "internal", mapped.Detail)
	assert.NotContains(t, mapped.Error(), "planner")
}

func TestAsClientDatabaseErrorPassesThroughOtherErrors(t *testing.T) {
	mapped := AsClientDatabaseError(errors.New("boom"))
	assert.Equal(t, "boom", mapped.Detail)
}
