package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// TextLoader loads a file as a string.
type TextLoader struct{}

func (tl *TextLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		FullPath: path,
		Type:     metadata.ResourceTypeText,
		Data:     string(data),
	}, nil
}

func (tl *TextLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("text loader: nil resource")
	}
	resource.Data = nil
	return nil
}
