package types

type Section struct {
	Heading string `json:"Heading"`
	Content string `json:"Content"`
}

// ProductDocument is the final generated guide.
type ProductDocument struct {
	Title                string    `json:"Title"`
	Summary              string    `json:"Summary"`
	EstimatedReadingTime string    `json:"EstimatedReadingTime"`
	FormatIntent         string    `json:"FormatIntent"`
	Sections             []Section `json:"Sections"`
}

type GenerateIn struct {
	Spec *ProductSpec `json:"product_spec"`
}

type GenerateOut struct {
	ProductDocument
}
