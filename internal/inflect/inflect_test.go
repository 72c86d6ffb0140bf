package inflect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityName(t *testing.T) {
	assert.Equal(t, "Account", EntityName("accounts"))
	assert.Equal(t, "Category", EntityName("categories"))
}

func TestEntityPluralName(t *testing.T) {
	assert.Equal(t, "Accounts", EntityPluralName("accounts"))
	assert.Equal(t, "Categories", EntityPluralName("categories"))
}

func TestOperationNames(t *testing.T) {
	assert.Equal(t, "getAccount", OperationName("get", "accounts"))
	assert.Equal(t, "getAllAccounts", OperationName("getAll", "accounts"))
	assert.Equal(t, "createAccount", OperationName("create", "accounts"))
	assert.Equal(t, "updateAccount", OperationName("update", "accounts"))
	assert.Equal(t, "updateAllAccounts", OperationName("updateAll", "accounts"))
	assert.Equal(t, "removeAccount", OperationName("remove", "accounts"))
	assert.Equal(t, "removeAllAccounts", OperationName("removeAll", "accounts"))
}

func TestInputTypeNames(t *testing.T) {
	assert.Equal(t, "AccountBoolExp", BoolExpName("accounts"))
	assert.Equal(t, "AccountIndexFilter", IndexFilterName("accounts"))
	assert.Equal(t, "AccountSet", SetName("accounts"))
	assert.Equal(t, "AccountInsert", InsertName("accounts"))
	assert.Equal(t, "AccountRelationshipsInsert", RelationshipsInsertName("accounts"))
	assert.Equal(t, "AccountStatusEnum", EnumName("accounts", "status"))
}

func TestSingularIsIdempotent(t *testing.T) {
	once := Singular("accounts")
	twice := Singular(once)
	assert.Equal(t, once, twice)
}
