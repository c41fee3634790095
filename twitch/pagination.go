package twitch

// page is the envelope Helix wraps around list responses. Cursor pagination:
// pass Pagination.Cursor as the "after" query parameter to fetch the next
// page; an empty cursor means the listing is exhausted.
type page[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}
