package entity

import "time"

// BurnedNumber registra un correlativo consumido sin documento persistido.
// Sirve para conciliar huecos en la numeración.
type BurnedNumber struct {
	DocumentCode string
	Series       string
	Number       int64
	Reason       string
	CreatedAt    time.Time
}
