package livefeed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovive/greenhouse-live/internal/model"
)

func payloadFrom(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalizeVisitLegacyDialect(t *testing.T) {
	before := time.Now().UTC()
	n, ok := Normalize(payloadFrom(t, `{"id": 5, "tipo": "visit", "nombre_visitante": "Ana"}`))
	require.True(t, ok)

	assert.Equal(t, "5", n.ID, "numeric id coerced to string")
	assert.Equal(t, model.KindVisit, n.Kind)
	assert.Equal(t, model.DefaultTitle(model.KindVisit), n.Title)
	assert.Equal(t, "Visitante: Ana", n.Message)
	assert.False(t, n.Read)
	assert.False(t, n.CreatedAt.Before(before), "missing timestamp falls back to receipt time")
}

func TestNormalizeCanonicalFieldsWinOverAliases(t *testing.T) {
	n, ok := Normalize(payloadFrom(t, `{
		"id": "n1", "kind": "hardware-alert",
		"title": "Bomba averiada", "titulo": "ignorado",
		"message": "presión baja", "mensaje": "ignorado",
		"greenhouse_id": "gh1", "zone_id": "z3",
		"timestamp": "2026-08-30T10:00:00Z"
	}`))
	require.True(t, ok)

	assert.Equal(t, "Bomba averiada", n.Title)
	assert.Equal(t, "presión baja", n.Message)
	assert.Equal(t, "gh1", n.GreenhouseID)
	assert.Equal(t, "z3", n.ZoneID)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), n.CreatedAt)
}

func TestNormalizeAliasFallbacks(t *testing.T) {
	n, ok := Normalize(payloadFrom(t, `{
		"id_visita": "v9", "tipo": "visit",
		"titulo": "Visita técnica", "descripcion": "revisión de riego",
		"leida": true, "id_zona": "z1",
		"fecha_activacion": "2026-08-29T08:30:00Z"
	}`))
	require.True(t, ok)

	assert.Equal(t, "v9", n.ID)
	assert.Equal(t, "Visita técnica", n.Title)
	assert.Equal(t, "revisión de riego", n.Message)
	assert.True(t, n.Read)
	assert.Equal(t, "z1", n.ZoneID)
	assert.Equal(t, time.Date(2026, 8, 29, 8, 30, 0, 0, time.UTC), n.CreatedAt)
}

func TestNormalizeUnknownKindDropped(t *testing.T) {
	_, ok := Normalize(payloadFrom(t, `{"id":"x","kind":"firmware-update"}`))
	assert.False(t, ok)

	_, ok = Normalize(payloadFrom(t, `{"id":"x"}`))
	assert.False(t, ok, "missing kind dropped too")
}

func TestNormalizeMissingIDGetsLocalIdentity(t *testing.T) {
	a, ok := Normalize(payloadFrom(t, `{"kind":"sensor-alert","message":"humedad fuera de rango"}`))
	require.True(t, ok)
	b, ok := Normalize(payloadFrom(t, `{"kind":"sensor-alert","message":"humedad fuera de rango"}`))
	require.True(t, ok)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "each id-less event stays distinct")
}

func TestNormalizeDefaultTitlePerKind(t *testing.T) {
	cases := []model.Kind{
		model.KindVisit, model.KindHardwareAlert,
		model.KindIrrigationStart, model.KindIrrigationEnd,
		model.KindLightingStart, model.KindLightingEnd,
		model.KindSensorInfo, model.KindSensorAlert,
	}
	for _, kind := range cases {
		n, ok := Normalize(map[string]any{"id": "x", "kind": string(kind)})
		require.True(t, ok, kind)
		assert.Equal(t, model.DefaultTitle(kind), n.Title, kind)
		assert.NotEmpty(t, n.Title, kind)
	}
}

func TestNormalizeReading(t *testing.T) {
	r, ok := NormalizeReading(payloadFrom(t, `{
		"id_zona": "z7", "tipo": "humidity", "valor": 43.2, "unidad": "%"
	}`))
	require.True(t, ok)

	assert.Equal(t, "z7", r.ZoneID)
	assert.Equal(t, 43.2, r.Value)
	assert.Equal(t, "%", r.Unit)
	assert.Equal(t, model.DefaultReadingMin, r.Min, "fallback display range")
	assert.Equal(t, model.DefaultReadingMax, r.Max)
	assert.False(t, r.Timestamp.IsZero())
}

func TestNormalizeReadingRequiresValueAndZone(t *testing.T) {
	_, ok := NormalizeReading(payloadFrom(t, `{"zone_id":"z1","unit":"%"}`))
	assert.False(t, ok, "no value")

	_, ok = NormalizeReading(payloadFrom(t, `{"value":10,"unit":"%"}`))
	assert.False(t, ok, "no zone")
}

func TestNormalizeReadingExplicitBounds(t *testing.T) {
	r, ok := NormalizeReading(payloadFrom(t, `{
		"zone_id":"z2","value":55,"min":30,"max":70,"timestamp":"2026-08-30T12:00:00Z"
	}`))
	require.True(t, ok)
	assert.Equal(t, 30.0, r.Min)
	assert.Equal(t, 70.0, r.Max)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), r.Timestamp)
}
