package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteIntentCreateKSReady(t *testing.T) {
	action := RouteIntent("create_ks", map[string]string{
		"amount":   "500000",
		"category": "канцтовары",
	})

	assert.Equal(t, IntentCreateKS, action.Intent)
	assert.Equal(t, ActionReady, action.Action)
	assert.Equal(t, "500000", action.Fields["amount"])
	assert.Equal(t, "канцтовары", action.Fields["category"])
	assert.Empty(t, action.MissingFields)
}

func TestRouteIntentCreateKSMissingAmount(t *testing.T) {
	action := RouteIntent("create_ks", map[string]string{"category": "мебель"})

	assert.Equal(t, ActionMissingFields, action.Action)
	assert.Equal(t, []string{"amount"}, action.MissingFields)
	// необязательные поля все равно собираются
	assert.Equal(t, "мебель", action.Fields["category"])
}

func TestRouteIntentCreateContract(t *testing.T) {
	action := RouteIntent("create_contract", map[string]string{
		"amount": "1000000",
		"law":    "44-ФЗ",
	})

	assert.Equal(t, ActionReady, action.Action)
	assert.Equal(t, "44-ФЗ", action.Fields["law"])
}

func TestRouteIntentSearchDocsNoEntities(t *testing.T) {
	action := RouteIntent("search_docs", nil)

	// поиск без фильтров допустим
	assert.Equal(t, ActionReady, action.Action)
	assert.Empty(t, action.MissingFields)
}

func TestRouteIntentSearchCompanyNeedsIdentifier(t *testing.T) {
	action := RouteIntent("search_company", nil)
	assert.Equal(t, ActionMissingFields, action.Action)
	assert.Contains(t, action.MissingFields, "inn")

	action = RouteIntent("search_company", map[string]string{"inn": "7710137066"})
	assert.Equal(t, ActionReady, action.Action)
}

func TestRouteIntentCreateCompanyProfile(t *testing.T) {
	action := RouteIntent("create_company_profile", map[string]string{
		"company_name": "Ромашка",
	})

	assert.Equal(t, ActionMissingFields, action.Action)
	assert.Equal(t, []string{"inn"}, action.MissingFields)
}

func TestRouteIntentHelp(t *testing.T) {
	action := RouteIntent("help", nil)
	assert.Equal(t, ActionInfo, action.Action)
	assert.NotEmpty(t, action.Message)
}

func TestRouteIntentUnknown(t *testing.T) {
	action := RouteIntent("launch_rocket", nil)
	assert.Equal(t, ActionUnknown, action.Action)
	assert.Equal(t, Intent("launch_rocket"), action.Intent)
}
