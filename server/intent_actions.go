package server

// Intent закрытое множество поддерживаемых намерений
type Intent string

const (
	IntentCreateContract       Intent = "create_contract"
	IntentCreateKS             Intent = "create_ks"
	IntentCreateZakupka        Intent = "create_zakupka"
	IntentSearchDocs           Intent = "search_docs"
	IntentSearchCompany        Intent = "search_company"
	IntentCreateCompanyProfile Intent = "create_company_profile"
	IntentHelp                 Intent = "help"
)

// Статусы действия по намерению
const (
	ActionReady         = "ready"          // все обязательные поля собраны
	ActionMissingFields = "missing_fields" // нужны уточнения от пользователя
	ActionInfo          = "info"           // информационный ответ
	ActionUnknown       = "unknown"        // намерение вне поддерживаемого набора
)

// IntentAction результат маршрутизации намерения: что система готова
// сделать и каких полей не хватает.
type IntentAction struct {
	Intent        Intent            `json:"intent"`
	Action        string            `json:"action"`
	Description   string            `json:"description"`
	Fields        map[string]string `json:"fields,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// RouteIntent сопоставляет распознанное намерение с действием системы.
// Диспетчеризация идет через switch по типизированным константам:
// добавление нового намерения без ветки не скомпилируется мимо ревью.
func RouteIntent(intent string, entities map[string]string) IntentAction {
	switch Intent(intent) {
	case IntentCreateContract:
		return buildAction(IntentCreateContract, "Создание прямого контракта", entities,
			[]string{"amount"},
			[]string{"contract_name", "customer_inn", "inn", "law", "deadline", "category"})

	case IntentCreateKS:
		return buildAction(IntentCreateKS, "Создание котировочной сессии", entities,
			[]string{"amount"},
			[]string{"ks_name", "category", "deadline", "law"})

	case IntentCreateZakupka:
		return buildAction(IntentCreateZakupka, "Создание закупки", entities,
			[]string{"category"},
			[]string{"amount", "law", "deadline", "priority"})

	case IntentSearchDocs:
		// поиск работает без обязательных полей, сущности сужают выдачу
		return buildAction(IntentSearchDocs, "Поиск документов", entities,
			nil,
			[]string{"document_id", "contract_name", "law", "deadline", "category"})

	case IntentSearchCompany:
		action := buildAction(IntentSearchCompany, "Поиск компании", entities,
			nil,
			[]string{"company_name", "inn", "bik"})
		// нужен хотя бы один идентификатор компании
		if len(action.Fields) == 0 {
			action.Action = ActionMissingFields
			action.MissingFields = []string{"company_name", "inn"}
			action.Message = "Укажите название компании или ИНН"
		}
		return action

	case IntentCreateCompanyProfile:
		return buildAction(IntentCreateCompanyProfile, "Создание профиля компании", entities,
			[]string{"company_name", "inn"},
			[]string{"bik"})

	case IntentHelp:
		return IntentAction{
			Intent:      IntentHelp,
			Action:      ActionInfo,
			Description: "Справка",
			Message: "Я помогаю с закупками: создание контракта, котировочной сессии " +
				"или закупки, поиск документов и компаний, создание профиля компании.",
		}

	default:
		return IntentAction{
			Intent: Intent(intent),
			Action: ActionUnknown,
			Message: "Намерение не поддерживается",
		}
	}
}

// buildAction собирает действие из обязательных и дополнительных полей
func buildAction(intent Intent, description string, entities map[string]string,
	required, optional []string) IntentAction {

	action := IntentAction{
		Intent:      intent,
		Description: description,
		Fields:      map[string]string{},
	}

	for _, field := range required {
		if value, ok := entities[field]; ok && value != "" {
			action.Fields[field] = value
		} else {
			action.MissingFields = append(action.MissingFields, field)
		}
	}
	for _, field := range optional {
		if value, ok := entities[field]; ok && value != "" {
			action.Fields[field] = value
		}
	}

	if len(action.MissingFields) > 0 {
		action.Action = ActionMissingFields
		action.Message = "Не хватает обязательных полей"
	} else {
		action.Action = ActionReady
	}
	return action
}
