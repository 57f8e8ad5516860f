package catalog_repo

import (
	"melodia/internal/domain/catalogs/topic"
	"melodia/internal/infrastructure/storage/postgres"
)

const topicTable = "cat_topic"

// TopicRepo implements the topic catalog contract.
type TopicRepo struct {
	*BaseCatalogRepo[*topic.Topic]
}

// NewTopicRepo creates a new topic repository.
func NewTopicRepo(tx *postgres.TxManager) *TopicRepo {
	return &TopicRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tx,
			topicTable,
			postgres.ExtractDBColumns[topic.Topic](),
			func() *topic.Topic { return &topic.Topic{} },
		),
	}
}
