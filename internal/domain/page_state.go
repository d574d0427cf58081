package domain

// PageState is the complete routing state of a page: its element snapshot
// and the connectors drawn between them.
type PageState struct {
	PageID     string      `json:"pageId"`
	Elements   []Element   `json:"elements"`
	Connectors []Connector `json:"connectors"`
}
