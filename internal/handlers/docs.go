package handlers

import (
	"net/http"
	"strconv"
)

type object = map[string]interface{}

func ref(name string) object {
	return object{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema object) object {
	return object{"application/json": object{"schema": schema}}
}

func pathParam(name, description string, enum []string) object {
	schema := object{"type": "string"}
	if enum != nil {
		schema["enum"] = enum
	}
	return object{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      schema,
	}
}

func queryParam(name, description string, schema object) object {
	return object{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

// operation builds an operation whose success response uses schema and
// whose listed error codes use the shared Error schema
func operation(summary string, params []object, success string, schema object, errorCodes ...string) object {
	responses := object{
		success: object{"description": "Successful response", "content": jsonContent(schema)},
	}
	for _, code := range errorCodes {
		status, _ := strconv.Atoi(code)
		responses[code] = object{"description": http.StatusText(status), "content": jsonContent(ref("Error"))}
	}

	op := object{"summary": summary, "responses": responses}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

var locationIDs = []string{"home", "work", "football", "studio", "daycare"}

func readingProperties() object {
	num := object{"type": "number"}
	return object{
		"aqi_value":         object{"type": "integer"},
		"aqi_category":      object{"type": "string", "enum": []string{"good", "moderate", "unhealthy_sensitive", "unhealthy", "very_unhealthy", "hazardous"}},
		"primary_pollutant": object{"type": "string"},
		"pm25":              num,
		"pm10":              num,
		"o3":                num,
		"no2":               num,
		"so2":               num,
		"co":                num,
		"temperature":       num,
		"humidity":          num,
		"latitude":          num,
		"longitude":         num,
		"reading_time":      object{"type": "string", "example": "2025-09-15T14:30:05Z"},
		"data_source":       object{"type": "string"},
	}
}

func withProperties(base object, extra object) object {
	out := object{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return object{"type": "object", "properties": out}
}

func openAPIDocument() object {
	location := pathParam("location_id", "User location identifier", locationIDs)
	userID := pathParam("user_id", "User identifier", nil)

	return object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "AirWatch API",
			"description": "New York City air quality readings, per-location history, health profiles and insights",
			"version":     "1.0.0",
		},
		"servers": []object{
			{"url": "http://localhost:5000", "description": "Local development server"},
		},
		"paths": object{
			"/health": object{
				"get": operation("Health check", nil, "200", object{"type": "object"}, "503"),
			},
			"/api/aqi/nyc/current": object{
				"get": operation("Current city reading with 24h trend", nil, "200", ref("CityOverview")),
			},
			"/api/aqi/nyc/stations": object{
				"get": operation("Fresh readings for every monitoring station", nil, "200", object{
					"type":       "object",
					"properties": object{"stations": object{"type": "array", "items": ref("StationReading")}},
				}),
			},
			"/api/aqi/nyc/station/{station_id}": object{
				"get": operation("Fresh reading for one station",
					[]object{pathParam("station_id", "Station identifier", nil)},
					"200", ref("StationReading"), "404"),
			},
			"/api/aqi/health-recommendations": object{
				"get": operation("Advice for the current AQI category", nil, "200", object{"type": "object"}),
			},
			"/api/users/profile": object{
				"post": func() object {
					op := operation("Create or replace a user profile", nil, "200", object{
						"type": "object",
						"properties": object{
							"message": object{"type": "string"},
							"profile": ref("UserProfile"),
						},
					}, "400")
					op["requestBody"] = object{"required": true, "content": jsonContent(ref("UserProfile"))}
					return op
				}(),
			},
			"/api/users/profile/{user_id}": object{
				"get": operation("Get a user profile", []object{userID}, "200", ref("UserProfile"), "404"),
			},
			"/api/users/profile/{user_id}/health-risk": object{
				"get": operation("Health risk assessment", []object{userID}, "200", ref("HealthRisk"), "404"),
			},
			"/api/location/{location_id}/current": object{
				"get": operation("Latest stored reading", []object{location}, "200", ref("LocationReading"), "400", "404"),
			},
			"/api/location/{location_id}/history": object{
				"get": operation("Stored readings inside a time window, newest first",
					[]object{
						location,
						queryParam("hours", "Window length ending now (default 24, max 720)", object{"type": "integer", "default": 24}),
						queryParam("start", "Window start (RFC3339), requires end", object{"type": "string", "format": "date-time"}),
						queryParam("end", "Window end (RFC3339), requires start", object{"type": "string", "format": "date-time"}),
					},
					"200", object{
						"type": "object",
						"properties": object{
							"location": object{"type": "string"},
							"hours":    object{"type": "integer"},
							"start":    object{"type": "string"},
							"end":      object{"type": "string"},
							"data":     object{"type": "array", "items": ref("LocationReading")},
						},
					}, "400"),
			},
			"/api/location/{location_id}/readings": object{
				"post": operation("Generate and store a reading for the location", []object{location}, "201", ref("LocationReading"), "400"),
			},
			"/api/insights/{location_id}": object{
				"get": operation("Advice derived from the latest stored reading", []object{location}, "200", ref("LocationInsight"), "400", "404"),
			},
			"/api/database/stats": object{
				"get": operation("Row counts per table", nil, "200", object{"type": "object"}),
			},
			"/metrics": object{
				"get": object{
					"summary": "Prometheus metrics",
					"responses": object{
						"200": object{
							"description": "Prometheus metrics in text format",
							"content":     object{"text/plain": object{"schema": object{"type": "string"}}},
						},
					},
				},
			},
		},
		"components": object{
			"schemas": object{
				"Error": object{
					"type": "object",
					"properties": object{
						"error":   object{"type": "string"},
						"message": object{"type": "string"},
						"code":    object{"type": "integer"},
					},
				},
				"CityOverview": object{
					"type": "object",
					"properties": object{
						"current": withProperties(readingProperties(), object{"location": object{"type": "string"}}),
						"historical": object{
							"type": "array",
							"items": object{
								"type":       "object",
								"properties": object{"time": object{"type": "string", "example": "14:30"}, "aqi": object{"type": "integer"}},
							},
						},
					},
				},
				"StationReading": withProperties(readingProperties(), object{
					"id":       object{"type": "string"},
					"location": object{"type": "string"},
				}),
				"LocationReading": withProperties(readingProperties(), object{
					"id":        object{"type": "integer"},
					"timestamp": object{"type": "string", "format": "date-time"},
				}),
				"UserProfile": object{
					"type":     "object",
					"required": []string{"user_id"},
					"properties": object{
						"user_id":           object{"type": "string"},
						"age":               object{"type": "integer", "minimum": 0, "maximum": 130, "nullable": true},
						"sex":               object{"type": "string", "enum": []string{"male", "female", "other"}, "nullable": true},
						"smoking_status":    object{"type": "string", "enum": []string{"never", "former", "current"}, "nullable": true},
						"health_conditions": object{"type": "array", "items": object{"type": "string"}},
						"created_at":        object{"type": "string", "format": "date-time"},
						"updated_at":        object{"type": "string", "format": "date-time"},
					},
				},
				"HealthRisk": object{
					"type": "object",
					"properties": object{
						"user_id":                   object{"type": "string"},
						"risk_level":                object{"type": "string", "enum": []string{"low", "moderate", "high"}},
						"recommended_aqi_threshold": object{"type": "integer"},
						"profile_summary":           object{"type": "object"},
					},
				},
				"LocationInsight": object{
					"type": "object",
					"properties": object{
						"location":          object{"type": "string"},
						"aqi_value":         object{"type": "integer"},
						"aqi_category":      object{"type": "string"},
						"primary_pollutant": object{"type": "string"},
						"insight":           object{"type": "string"},
						"source":            object{"type": "string"},
						"full_data":         ref("LocationReading"),
					},
				},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the AirWatch API
func (h *AirQualityHandler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, openAPIDocument(), http.StatusOK)
}
