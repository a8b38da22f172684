package document

// Queryable attribute names of the search index.
const (
	FieldStatus              = "status"
	FieldGymType             = "gym_type"
	FieldPriceRange          = "price_range"
	FieldAttributes          = "attributes"
	FieldAttributeCategories = "attribute_categories"
	FieldCity                = "city"
	FieldCityText            = "city_text"
	FieldState               = "state"
	FieldCountry             = "country"
	FieldIs24Hour            = "is_24_hour"
	FieldTier                = "subscription_tier"
	FieldLocation            = "location"
	FieldName                = "name"
	FieldDescription         = "description"
	FieldCreatedAt           = "created_at"
	FieldUpdatedAt           = "updated_at"
	FieldBoostScore          = "boost_score"
	FieldEquipmentCount      = "equipment_count"
	FieldAmenityCount        = "amenity_count"
)

// FacetFields are the categorical attributes counted on every search.
var FacetFields = []string{FieldGymType, FieldPriceRange, FieldAttributes, FieldCity, FieldCountry}
