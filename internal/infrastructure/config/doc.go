// Package config loads the gateway's YAML configuration.
//
// Values are resolved in three layers: built-in defaults matching the
// stock 433 MHz / network 101 deployment, then the YAML file, then
// RFMGW_* environment variables. Validate reports every bad field at once
// so a misconfigured gateway fails on its first start, not one field per
// restart.
//
// Keep secrets out of the file: RFMGW_RADIO_ENCRYPT_KEY,
// RFMGW_MQTT_PASSWORD and RFMGW_INFLUXDB_TOKEN override it.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	key, _ := cfg.Radio.Key()
package config
