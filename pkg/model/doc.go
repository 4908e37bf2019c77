// Package model defines the types shared by the field mapper, the submission
// normaliser, and the forwarder. Descriptors mirror the field nodes returned by
// WPGraphQL (`__typename`, `databaseId`, `inputs`) and the Gravity Forms REST
// schema (`type`, `id`, `inputs`); both shapes decode into the same Descriptor
// and anything that cannot be decoded is kept as KindOther so mappers can skip
// it. Remote keys follow the Gravity Forms wire format `input_<id>` or
// `input_<id>.<subId>`; helpers in keys.go convert between bare ids and remote
// keys and derive the parent field id used to address validation messages.
package model
