package httpapi

// TokenMetadata is the off-chain metadata document written beside the
// processed image and referenced by URI from the mint.
type TokenMetadata struct {
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Attributes  []Attribute        `json:"attributes"`
	Properties  MetadataProperties `json:"properties"`
}

// Attribute is one trait entry in the metadata document.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// MetadataProperties follows the common token metadata shape.
type MetadataProperties struct {
	Files    []MetadataFile `json:"files"`
	Category string         `json:"category"`
}

// MetadataFile is one file reference in the metadata properties.
type MetadataFile struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// newTokenMetadata builds the metadata document for a processed image.
func newTokenMetadata(imageURL, name, description string, attributes []Attribute) TokenMetadata {
	if attributes == nil {
		attributes = []Attribute{}
	}
	return TokenMetadata{
		Name:        name,
		Symbol:      "NFT",
		Description: description,
		Image:       imageURL,
		Attributes:  attributes,
		Properties: MetadataProperties{
			Files: []MetadataFile{
				{URI: imageURL, Type: "image/png"},
			},
			Category: "image",
		},
	}
}
