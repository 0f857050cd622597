package model

// SequenceModel is a named monotonic counter. Two kinds of scope exist:
// "ref/<year>" for the shared per-year HSE reference sequence, and
// "num/<prefix>/<yyyymmdd>" for internal permit numbers. Incrementing a
// scope is always done inside a transaction, with a row lock on databases
// that support it.
type SequenceModel struct {
	Scope string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null"`
}

// TableName returns the sequences table name.
func (SequenceModel) TableName() string {
	return "sequences"
}
