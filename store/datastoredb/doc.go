// Package datastoredb stores community settings in the Google Cloud Datastore. Every community
// (silo) is a datastore namespace and every setting an entity of the kind given to New, keyed by
// the setting name.
//
// The project needs datastore mode enabled and New needs credentials, usually a service account
// json file:
//
//	settings, err := datastoredb.New("settings", "modscot-prod", metric.NoopMeter{}, option.WithCredentialsFile(credentialsPath))
//	if err != nil {
//		return err
//	}
//	defer settings.Close()
//
// A call failing for another reason than a missing entity triggers one reconnect and one retry.
package datastoredb
