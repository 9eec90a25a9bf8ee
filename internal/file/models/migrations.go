package models

// All returns every model registered for auto migration
func All() []interface{} {
	return []interface{}{
		&ContentObject{},
		&FileNode{},
		&FileVersion{},
		&UploadSession{},
		&OutboxMessage{},
	}
}
