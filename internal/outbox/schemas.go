package outbox

const activityLoggedSchema = `{
  "type": "object",
  "title": "ActivityLogged",
  "properties": {
    "activity_id": {"type": "string"},
    "owner_id": {"type": "string"},
    "title": {"type": "string"},
    "value_refs": {"type": "array", "items": {"type": "string"}},
    "primary_value": {"type": "string"},
    "duration_min": {"type": "integer"},
    "occurred_on": {"type": "string", "format": "date-time"},
    "notes": {"type": "string"},
    "is_public": {"type": "boolean"},
    "notes_public": {"type": "boolean"},
    "logged_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "owner_id", "title", "value_refs", "primary_value", "duration_min", "occurred_on", "is_public", "notes_public", "logged_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "activity_id": {"type": "string"},
    "owner_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "owner_id", "occurred_at"],
  "additionalProperties": false
}`
