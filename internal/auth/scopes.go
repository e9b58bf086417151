package auth

// OAuth scopes understood by the backend.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
	ScopeValuesWrite     = "values:write"
	ScopeValuesRead      = "values:read"
	ScopeFeedRead        = "feed:read"
)
