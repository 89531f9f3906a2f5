package utils

import (
	"github.com/google/uuid"
)

// GenerateID 는 시간순으로 정렬되는 UUIDv7 을 만든다.
// 같은 created_at 을 가진 메시지도 id 로 순서가 유지된다.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
