package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog record. The same shape backs both the "products"
// and "home_products" collections.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Price       string             `json:"price" bson:"price"`
	Description string             `json:"description" bson:"description"`
	ImageURL    *string            `json:"image_url" bson:"image_url,omitempty"`
	Thumbnails  ThumbnailList      `json:"thumbnails" bson:"thumbnails"`
	Version     int64              `json:"version" bson:"version"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Upload carries a raw image picked by the operator.
type Upload struct {
	Filename string
	Data     []byte
}

// ThumbnailList is the ordered thumbnail URL collection. It is always
// written to the store as a BSON array of strings; reads additionally
// tolerate a legacy JSON-encoded string form and drop blank or non-string
// entries instead of failing the decode.
type ThumbnailList []string

func (t *ThumbnailList) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: typ, Value: data}

	switch typ {
	case bsontype.Array:
		values, err := rv.Array().Values()
		if err != nil {
			*t = nil
			return nil
		}
		out := make(ThumbnailList, 0, len(values))
		for _, v := range values {
			if s, ok := v.StringValueOK(); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		*t = out
		return nil
	case bsontype.String:
		var out []string
		if err := json.Unmarshal([]byte(rv.StringValue()), &out); err != nil {
			*t = nil
			return nil
		}
		*t = FilterThumbnails(out)
		return nil
	default:
		*t = nil
		return nil
	}
}

// FilterThumbnails drops blank entries, preserving order.
func FilterThumbnails(urls []string) ThumbnailList {
	out := make(ThumbnailList, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	return out
}
