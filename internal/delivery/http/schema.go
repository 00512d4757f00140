package http

import (
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// pointSchema - GeoJSON точка: ровно две координаты [lng, lat]
const pointSchema = `{
	"type": "object",
	"required": ["type", "coordinates"],
	"properties": {
		"type": {"const": "Point"},
		"coordinates": {
			"type": "array",
			"minItems": 2,
			"maxItems": 2,
			"items": [
				{"type": "number", "minimum": -180, "maximum": 180},
				{"type": "number", "minimum": -90, "maximum": 90}
			]
		}
	}
}`

var createTripSchema = mustSchema(`{
	"type": "object",
	"required": ["vehicle", "source", "sourceAddress", "destination", "destinationAddress", "startDate", "seatsAvailable"],
	"properties": {
		"vehicle": {"type": "string", "format": "uuid"},
		"source": ` + pointSchema + `,
		"sourceAddress": {"type": "string", "minLength": 1},
		"destination": ` + pointSchema + `,
		"destinationAddress": {"type": "string", "minLength": 1},
		"startDate": {"type": "string", "format": "date-time"},
		"endDate": {"type": "string", "format": "date-time"},
		"seatsAvailable": {"type": "integer", "minimum": 1},
		"participants": {"type": "array", "items": {"type": "string", "format": "uuid"}},
		"pricePerPerson": {"type": "number", "minimum": 0},
		"status": {"enum": ["scheduled", "ongoing", "rescheduled", "canceled", "completed"]}
	}
}`)

// Хост, участники и счетчик мест через updateTrip не меняются
var updateTripSchema = mustSchema(`{
	"type": "object",
	"additionalProperties": false,
	"minProperties": 1,
	"properties": {
		"source": ` + pointSchema + `,
		"sourceAddress": {"type": "string", "minLength": 1},
		"destination": ` + pointSchema + `,
		"destinationAddress": {"type": "string", "minLength": 1},
		"startDate": {"type": "string", "format": "date-time"},
		"endDate": {"type": "string", "format": "date-time"},
		"seatCapacity": {"type": "integer", "minimum": 1},
		"pricePerPerson": {"type": "number", "minimum": 0},
		"status": {"type": "string"}
	}
}`)

// tripIDSchema - тело join и leaveTrip, формат UUID проверяет обработчик
var tripIDSchema = mustSchema(`{
	"type": "object",
	"required": ["tripId"],
	"properties": {
		"tripId": {"type": "string", "minLength": 1}
	}
}`)

// Допустимость значения статуса решает сервис
var statusSchema = mustSchema(`{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string", "minLength": 1}
	}
}`)

func mustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic("invalid json schema: " + err.Error())
	}
	return schema
}

// validateSchema проверяет тело запроса и возвращает сообщение для клиента
// Пустая строка - тело валидно
func validateSchema(schema *gojsonschema.Schema, body []byte) (string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", err
	}
	if result.Valid() {
		return "", nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return strings.Join(messages, "; "), nil
}

// bindJSON читает тело, проверяет его схемой и декодирует в dst
// При ошибке ответ клиенту уже отправлен
func bindJSON(w http.ResponseWriter, r *http.Request, schema *gojsonschema.Schema, dst interface{}) bool {
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	problems, err := validateSchema(schema, body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if problems != "" {
		respondError(w, http.StatusBadRequest, problems)
		return false
	}

	if err := decodeJSON(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
