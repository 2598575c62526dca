package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishOrderEvent implements the transactional outbox: it writes the event
// record inside the caller's DB transaction but does NOT publish to Pub/Sub.
// Publishing is performed asynchronously by the outbox dispatcher after commit.
func PublishOrderEvent(ctx context.Context, tx *gorm.DB, tenantId string, eventDateTime time.Time, refId int, refType OrderReferenceType, obj interface{}, oldObj interface{}, msgAction PubSubMessageAction) error {

	var objInByte []byte
	var oldObjInByte []byte
	var err error

	if msgAction == PubSubMessageActionCreate || msgAction == PubSubMessageActionUpdate {
		objInByte, err = json.Marshal(obj)
		if err != nil {
			return err
		}
	}
	if msgAction == PubSubMessageActionUpdate || msgAction == PubSubMessageActionDelete {
		oldObjInByte, err = json.Marshal(oldObj)
		if err != nil {
			return err
		}
	}

	record := OutboxMessageRecord{
		TenantId:      tenantId,
		EventDateTime: eventDateTime,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        msgAction,
		NewObj:        objInByte,
		OldObj:        oldObjInByte,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
