// Package manifest holds the job list of a run.
//
// The manifest is written once after all album records are known and a
// second time after the downloader has assigned each album its folder.
// Records keep the order the API returned them in, both in memory and in
// the JSON file:
//
//	{
//	    "username": "alice",
//	    "albums": [
//	        {
//	            "id": 10,
//	            "name": "Summer Trip",
//	            "count": 2,
//	            "records": {
//	                "0__beach.jpg": "https://...",
//	                "1__sunset.png": "https://..."
//	            },
//	            "download_path": "/photos/lj_alice_10__Summer_Trip"
//	        }
//	    ]
//	}
package manifest
