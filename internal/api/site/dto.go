package siteapi

type CreateSiteRequest struct {
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	Language     string `json:"language"`
	Legislation  string `json:"legislation"`
	Observations string `json:"observations"`
}

type UpdateSiteRequest struct {
	Name         *string `json:"name"`
	Domain       *string `json:"domain"`
	Language     *string `json:"language"`
	Legislation  *string `json:"legislation"`
	Observations *string `json:"observations"`
}
