package collection

import (
	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
)

// Schema returns the FT index definition for the listings collection.
// boost_score is the default ordering key when no text query is given.
func Schema(coll collection.Collection) *db.IndexDefinition {
	return db.NewIndex(coll.IndexName()).
		OnJSON().
		Prefix(coll.KeyPrefix()).
		Text("$.name").As(domdoc.FieldName).Weight(5).Sortable().
		Text("$.description").As(domdoc.FieldDescription).
		Text("$.city_text").As(domdoc.FieldCityText).Weight(2).
		Text("$.attributes[*]").As("attributes_text").
		Tag("$.city").As(domdoc.FieldCity).
		Tag("$.state").As(domdoc.FieldState).
		Tag("$.country").As(domdoc.FieldCountry).
		Tag("$.gym_type").As(domdoc.FieldGymType).
		Tag("$.price_range").As(domdoc.FieldPriceRange).
		Tag("$.status").As(domdoc.FieldStatus).
		Tag("$.subscription_tier").As(domdoc.FieldTier).
		Tag("$.is_24_hour_tag").As(domdoc.FieldIs24Hour).
		TagWithOpts("$.attributes[*]", "|", false).As(domdoc.FieldAttributes).
		TagWithOpts("$.attribute_categories[*]", "|", false).As(domdoc.FieldAttributeCategories).
		Geo("$.geo").As(domdoc.FieldLocation).
		Numeric("$.created_at").As(domdoc.FieldCreatedAt).Sortable().
		Numeric("$.updated_at").As(domdoc.FieldUpdatedAt).Sortable().
		Numeric("$.boost_score").As(domdoc.FieldBoostScore).Sortable().
		Numeric("$.equipment_count").As(domdoc.FieldEquipmentCount).
		Numeric("$.amenity_count").As(domdoc.FieldAmenityCount).
		MustBuild()
}
