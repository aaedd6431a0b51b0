package domain

// FetchStatus tracks the lifecycle of the most recent directory fetch.
type FetchStatus string

const (
	FetchStatusIdle      FetchStatus = "idle"
	FetchStatusLoading   FetchStatus = "loading"
	FetchStatusSucceeded FetchStatus = "succeeded"
	FetchStatusFailed    FetchStatus = "failed"
)
