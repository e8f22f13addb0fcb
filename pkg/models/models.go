package models

// All lists the gorm models managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{&User{}, &Product{}, &Order{}, &OrderItem{}, &Message{}}
}
