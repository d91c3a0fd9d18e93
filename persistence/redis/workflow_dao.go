package redis

import (
	"context"

	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
	"github.com/canvasflow/canvasflow/util"
	rd "github.com/go-redis/redis/v9"
)

var _ persistence.MetadataStorage = new(redisMetadataStorage)

const WORKFLOW_DEF string = "WF_DEF"

type redisMetadataStorage struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Workflow]
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Workflow](),
	}
}

func (rms *redisMetadataStorage) SaveWorkflowDefinition(wf model.Workflow) error {
	key := rms.baseDao.getNamespaceKey(WORKFLOW_DEF, wf.Name)
	ctx := context.Background()
	data, err := rms.encoderDecoder.Encode(wf)
	if err != nil {
		return err
	}
	err = rms.redisClient.Set(ctx, key, data, 0).Err()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rms *redisMetadataStorage) GetWorkflowDefinition(name string) (*model.Workflow, error) {
	key := rms.baseDao.getNamespaceKey(WORKFLOW_DEF, name)
	ctx := context.Background()
	val, err := rms.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, persistence.NotFoundError{Kind: "workflow", Key: name}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	wf, err := rms.encoderDecoder.Decode([]byte(val))
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (rms *redisMetadataStorage) DeleteWorkflowDefinition(name string) error {
	key := rms.baseDao.getNamespaceKey(WORKFLOW_DEF, name)
	ctx := context.Background()
	err := rms.redisClient.Del(ctx, key).Err()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
