package redis

import "github.com/redis/go-redis/v9"

const (
	// createSessionScript stores an active session, indexes it and
	// recounts the zone's active users in one step.
	createSessionScript = `
local session_key = KEYS[1]     -- {prefix}:session:{id}
local active_set = KEYS[2]      -- {prefix}:sessions:active
local zone_set = KEYS[3]        -- {prefix}:sessions:zone:{zoneID}:active
local user_set = KEYS[4]        -- {prefix}:sessions:user:{userID}:active
local zone_key = KEYS[5]        -- {prefix}:zone:{zoneID}

local session_id = ARGV[1]
local user_id = ARGV[2]
local zone_id = ARGV[3]
local checked_in_at = ARGV[4]
local duration = ARGV[5]

redis.call('HSET', session_key,
  'id', session_id,
  'user_id', user_id,
  'zone_id', zone_id,
  'checked_in_at', checked_in_at,
  'checked_out_at', '',
  'duration', duration,
  'active', '1'
)

redis.call('SADD', active_set, session_id)
redis.call('SADD', zone_set, session_id)
redis.call('SADD', user_set, session_id)

-- Recount only zones that exist
if redis.call('EXISTS', zone_key) == 1 then
  redis.call('HSET', zone_key, 'active_users', redis.call('SCARD', zone_set))
end

return 'OK'
`

	// closeSessionScript deactivates an active session and recounts its zone.
	// Returns 1 when the session was closed, 0 when it was absent or inactive.
	closeSessionScript = `
local session_key = KEYS[1]     -- {prefix}:session:{id}
local active_set = KEYS[2]      -- {prefix}:sessions:active
local zone_set = KEYS[3]        -- {prefix}:sessions:zone:{zoneID}:active
local user_set = KEYS[4]        -- {prefix}:sessions:user:{userID}:active
local zone_key = KEYS[5]        -- {prefix}:zone:{zoneID}

local session_id = ARGV[1]
local checked_out_at = ARGV[2]

if redis.call('HGET', session_key, 'active') ~= '1' then
  return 0
end

redis.call('HSET', session_key,
  'active', '0',
  'checked_out_at', checked_out_at
)

redis.call('SREM', active_set, session_id)
redis.call('SREM', zone_set, session_id)
redis.call('SREM', user_set, session_id)

if redis.call('EXISTS', zone_key) == 1 then
  redis.call('HSET', zone_key, 'active_users', redis.call('SCARD', zone_set))
end

return 1
`

	// setActiveCountScript overwrites a zone's active user count if the zone exists
	setActiveCountScript = `
local zone_key = KEYS[1]        -- {prefix}:zone:{id}

if redis.call('EXISTS', zone_key) == 0 then
  return 0
end

redis.call('HSET', zone_key, 'active_users', ARGV[1])
return 1
`
)

var (
	createSession  = redis.NewScript(createSessionScript)
	closeSession   = redis.NewScript(closeSessionScript)
	setActiveCount = redis.NewScript(setActiveCountScript)
)
