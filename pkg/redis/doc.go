// Package redis connects the identity store to a Redis server.
//
// Config is populated from environment variables (REDIS_URL, REDIS_ORIGIN and
// retry settings) through pkg/config. Connect retries until the server answers
// a PING; OpenStore wraps the client into a store.RedisStore.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	identityStore, client, err := redis.OpenStore(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package redis
