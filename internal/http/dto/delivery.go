package dto

import (
	"time"

	"github.com/markawm/acme-github-issues/webhooks"
)

type DeliveryResponse struct {
	DeliveryID string    `json:"delivery_id"`
	Event      string    `json:"event"`
	Action     string    `json:"action,omitempty"`
	Key        string    `json:"key"`
	Account    string    `json:"account,omitempty"`
	Status     string    `json:"status"`
	EntityID   string    `json:"entity_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

type DeliveryListResponse struct {
	Key        string             `json:"key"`
	Deliveries []DeliveryResponse `json:"deliveries"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code"`
}

func ToDeliveryListResponse(key string, records []webhooks.DeliveryRecord) DeliveryListResponse {
	out := DeliveryListResponse{Key: key, Deliveries: make([]DeliveryResponse, 0, len(records))}
	for _, record := range records {
		out.Deliveries = append(out.Deliveries, DeliveryResponse{
			DeliveryID: record.DeliveryID,
			Event:      record.Event,
			Action:     record.Action,
			Key:        record.Key,
			Account:    record.Account,
			Status:     record.Status,
			EntityID:   record.EntityID,
			Error:      record.Error,
			ReceivedAt: record.ReceivedAt,
		})
	}
	return out
}
